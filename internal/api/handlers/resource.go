package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/query"
	"github.com/wildtrails/tours-api/internal/repository"
)

// ResourceOptions describes one resource type to the CRUD factory.
type ResourceOptions[T any] struct {
	// Scope returns extra equality filters merged into every listing:
	// nested-route parent references, secret-tour exclusion, and so on.
	Scope func(r *http.Request) (map[string]any, error)

	// BeforeCreate adjusts the decoded document before validation, e.g.
	// injecting path and identity references or computing a slug.
	BeforeCreate func(r *http.Request, doc *T) error

	// BeforeUpdate runs on the merged document before re-validation.
	BeforeUpdate func(r *http.Request, doc *T) error

	// AfterChange fires once per committed create, update or delete,
	// asynchronously to the response. On update and delete it receives
	// the document as it was before the mutation, so side effects keyed
	// on a parent reference use the pre-mutation value.
	AfterChange func(doc *T)

	// GetExpand and ListExpand name relations resolved eagerly.
	GetExpand  []string
	ListExpand []string
}

// Resource wraps one resource type in the five standard operations with a
// uniform request/response contract. The mutation pipeline is explicit:
// validate, persist, then side effects.
type Resource[T any] struct {
	store repository.Store[T]
	opts  ResourceOptions[T]
}

func NewResource[T any](store repository.Store[T], opts ResourceOptions[T]) *Resource[T] {
	return &Resource[T]{store: store, opts: opts}
}

func (res *Resource[T]) CreateOne(w http.ResponseWriter, r *http.Request) {
	var doc T
	if err := decodeJSON(r, &doc); err != nil {
		respondError(w, r, err)
		return
	}
	if res.opts.BeforeCreate != nil {
		if err := res.opts.BeforeCreate(r, &doc); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := validate(&doc); err != nil {
		respondError(w, r, err)
		return
	}
	if err := res.store.Insert(r.Context(), &doc); err != nil {
		respondError(w, r, err)
		return
	}
	res.fireAfterChange(&doc)
	respondData(w, http.StatusCreated, &doc)
}

func (res *Resource[T]) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	doc, err := res.store.FindByID(r.Context(), id, res.opts.GetExpand...)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, doc)
}

func (res *Resource[T]) GetAll(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Build(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	var scope map[string]any
	if res.opts.Scope != nil {
		if scope, err = res.opts.Scope(r); err != nil {
			respondError(w, r, err)
			return
		}
	}
	docs, err := res.store.FindAll(r.Context(), spec, scope, res.opts.ListExpand...)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if len(spec.Fields) > 0 {
		shaped := make([]map[string]any, 0, len(docs))
		for i := range docs {
			obj, err := toMap(&docs[i])
			if err != nil {
				respondError(w, r, err)
				return
			}
			shaped = append(shaped, spec.Project(obj))
		}
		respondList(w, len(shaped), shaped)
		return
	}
	respondList(w, len(docs), docs)
}

func (res *Resource[T]) UpdateOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	doc, err := res.store.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// The parent reference as it was before the mutation; side effects
	// must not see a patched value.
	before := *doc

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// Merging the patch onto the loaded document leaves absent fields
	// untouched; the merged result is then re-validated in full.
	if err := json.Unmarshal(body, doc); err != nil {
		respondError(w, r, domain.BadRequest("invalid request body"))
		return
	}
	if res.opts.BeforeUpdate != nil {
		if err := res.opts.BeforeUpdate(r, doc); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := validate(doc); err != nil {
		respondError(w, r, err)
		return
	}
	if err := res.store.Save(r.Context(), doc); err != nil {
		respondError(w, r, err)
		return
	}
	res.fireAfterChange(&before)
	respondData(w, http.StatusOK, doc)
}

func (res *Resource[T]) DeleteOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var before *T
	if res.opts.AfterChange != nil {
		if before, err = res.store.FindByID(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := res.store.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	if before != nil {
		res.fireAfterChange(before)
	}
	w.WriteHeader(http.StatusNoContent)
}

// fireAfterChange runs the side-effect hook without blocking the response;
// its failures are the hook's own to log.
func (res *Resource[T]) fireAfterChange(doc *T) {
	if res.opts.AfterChange != nil {
		go res.opts.AfterChange(doc)
	}
}

func validate(doc any) error {
	if v, ok := doc.(domain.Validator); ok {
		return v.Validate()
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.BadRequest("invalid resource id")
	}
	return id, nil
}

// toMap round-trips a document through its JSON form so projections see
// the same field names the client does.
func toMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
