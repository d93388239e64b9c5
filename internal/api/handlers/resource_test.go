package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/testutil"
)

func TestTourResource_ListAndProjection(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewTourBuilder().WithName("The Forest Hiker Tour").WithPrice(397).Build(t, ts.DB.DB)
	testutil.NewTourBuilder().WithName("The Sea Explorer Tour").WithPrice(497).Build(t, ts.DB.DB)
	testutil.NewTourBuilder().WithName("A Hidden Gem Hike").Secret().Build(t, ts.DB.DB)

	t.Run("secret tours never list", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours"))
		require.NoError(t, err)
		defer resp.Body.Close()

		env := testutil.DecodeEnvelope(t, resp)
		require.Equal(t, "success", env.Status)
		require.NotNil(t, env.Results)
		assert.Equal(t, 2, *env.Results)
	})

	t.Run("projection returns only requested fields plus id", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours?fields=name,price&sort=price"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var docs []map[string]any
		testutil.AssertSuccessData(t, resp, http.StatusOK, &docs)
		require.Len(t, docs, 2)

		first := docs[0]
		assert.Len(t, first, 3)
		assert.Contains(t, first, "id")
		assert.Equal(t, "The Forest Hiker Tour", first["name"])
		assert.Equal(t, 397.0, first["price"])
	})

	t.Run("filter operators apply", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours?price[gte]=450"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var docs []map[string]any
		testutil.AssertSuccessData(t, resp, http.StatusOK, &docs)
		require.Len(t, docs, 1)
		assert.Equal(t, "The Sea Explorer Tour", docs[0]["name"])
	})

	t.Run("unknown operator is a client error", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours?price[regex]=4"))
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "unknown filter operator")
	})
}

func TestTourResource_Mutations(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := &http.Client{}

	_, adminToken := testutil.NewUserBuilder().WithRole(domain.RoleAdmin).BuildAndLogin(t, ts)
	_, userToken := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	newTour := func(name string) map[string]any {
		return map[string]any{
			"name":         name,
			"duration":     5,
			"maxGroupSize": 20,
			"difficulty":   "easy",
			"price":        497,
			"summary":      "A freshly created test tour",
		}
	}

	t.Run("create computes the slug", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours"), newTour("The Brand New Trek"), adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var tour domain.Tour
		testutil.AssertSuccessData(t, resp, http.StatusCreated, &tour)
		assert.Equal(t, "the-brand-new-trek", tour.Slug)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours"), newTour("The Brand New Trek"), adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusConflict, "duplicate field value")
	})

	t.Run("invalid payload is rejected before persisting", func(t *testing.T) {
		body := newTour("The Too Cheap Trek")
		body["price"] = -10
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours"), body, adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "price")
	})

	t.Run("plain users cannot create tours", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours"), newTour("The Forbidden Trek"), userToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "permission")
	})

	t.Run("patch merges absent fields untouched", func(t *testing.T) {
		tour := testutil.NewTourBuilder().WithName("The Patchable Voyage").WithPrice(800).Build(t, ts.DB.DB)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodPatch, ts.APIURL("/tours/"+tour.ID.String()), map[string]any{"price": 650}, adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var updated domain.Tour
		testutil.AssertSuccessData(t, resp, http.StatusOK, &updated)
		assert.Equal(t, 650.0, updated.Price)
		assert.Equal(t, tour.Name, updated.Name)
		assert.Equal(t, tour.Duration, updated.Duration)
	})

	t.Run("patch that breaks an invariant is rejected", func(t *testing.T) {
		tour := testutil.NewTourBuilder().WithName("The Invariant Voyage").WithPrice(500).Build(t, ts.DB.DB)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodPatch, ts.APIURL("/tours/"+tour.ID.String()), map[string]any{"priceDiscount": 900}, adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "discount")
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		tour := testutil.NewTourBuilder().WithName("The Disposable Hike").Build(t, ts.DB.DB)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete, ts.APIURL("/tours/"+tour.ID.String()), nil, adminToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		getResp, err := http.Get(ts.APIURL("/tours/" + tour.ID.String()))
		require.NoError(t, err)
		defer getResp.Body.Close()
		testutil.AssertErrorResponse(t, getResp, http.StatusNotFound, "no document found")
	})

	t.Run("malformed id is a client error", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours/not-a-uuid"))
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "invalid resource id")
	})
}

func TestReviewResource_NestedAndAggregate(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := &http.Client{}

	tour := testutil.NewTourBuilder().Build(t, ts.DB.DB)
	reviewer, reviewerToken := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	ratingsOf := func() (int, float64) {
		var stored domain.Tour
		require.NoError(t, ts.DB.DB.First(&stored, "id = ?", tour.ID).Error)
		return stored.RatingsQuantity, stored.RatingsAverage
	}

	t.Run("nested create takes tour and author from context", func(t *testing.T) {
		body := map[string]any{"review": "Stunning scenery all week", "rating": 5}
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours/"+tour.ID.String()+"/reviews"), body, reviewerToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var review domain.Review
		testutil.AssertSuccessData(t, resp, http.StatusCreated, &review)
		assert.Equal(t, tour.ID, review.TourID)
		assert.Equal(t, reviewer.ID, review.UserID)

		// The rating aggregate catches up asynchronously.
		require.Eventually(t, func() bool {
			quantity, average := ratingsOf()
			return quantity == 1 && average == 5.0
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("second review by same user conflicts", func(t *testing.T) {
		body := map[string]any{"review": "Trying to double dip", "rating": 1}
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/tours/"+tour.ID.String()+"/reviews"), body, reviewerToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusConflict, "duplicate field value")
	})

	t.Run("nested listing scopes to the tour", func(t *testing.T) {
		other := testutil.NewTourBuilder().Build(t, ts.DB.DB)
		testutil.NewReviewBuilder().ForTour(other).WithRating(3).Build(t, ts.DB.DB)

		resp, err := http.Get(ts.APIURL("/tours/" + tour.ID.String() + "/reviews"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var docs []domain.Review
		testutil.AssertSuccessData(t, resp, http.StatusOK, &docs)
		require.Len(t, docs, 1)
		assert.Equal(t, tour.ID, docs[0].TourID)
		// The author relation is expanded on listings.
		require.NotNil(t, docs[0].User)
		assert.Equal(t, reviewer.ID, docs[0].User.ID)
	})

	t.Run("deleting the last review resets the aggregate", func(t *testing.T) {
		var review domain.Review
		require.NoError(t, ts.DB.DB.First(&review, "tour_id = ?", tour.ID).Error)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete, ts.APIURL("/reviews/"+review.ID.String()), nil, reviewerToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		require.Eventually(t, func() bool {
			quantity, average := ratingsOf()
			return quantity == 0 && average == domain.DefaultRatingsAverage
		}, 5*time.Second, 50*time.Millisecond)
	})
}

func TestTourAliasAndReports(t *testing.T) {
	ts := testutil.NewTestServer(t)

	prices := []float64{300, 400, 500, 600, 700, 800}
	for i, price := range prices {
		testutil.NewTourBuilder().
			WithName(string(rune('A'+i)) + " Alias Report Tour").
			WithPrice(price).
			Build(t, ts.DB.DB)
	}

	t.Run("top five cheap overrides the query", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours/top-5-cheap?limit=100"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var docs []map[string]any
		testutil.AssertSuccessData(t, resp, http.StatusOK, &docs)
		require.Len(t, docs, 5)
		for _, doc := range docs {
			// Projection shape: the five aliased fields plus id.
			assert.Contains(t, doc, "name")
			assert.Contains(t, doc, "price")
			assert.Contains(t, doc, "ratingsAverage")
			assert.NotContains(t, doc, "slug")
		}
	})

	t.Run("stats aggregates by difficulty", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours/stats"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var stats []map[string]any
		testutil.AssertSuccessData(t, resp, http.StatusOK, &stats)
		require.NotEmpty(t, stats)
		assert.Contains(t, stats[0], "numTours")
		assert.Contains(t, stats[0], "avgPrice")
	})

	t.Run("radius search validates the unit", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/tours/tours-within/100/center/34.1,-118.1/unit/furlongs"))
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "unit must be either mi or km")
	})

	t.Run("radius search finds nearby starts", func(t *testing.T) {
		testutil.NewTourBuilder().WithName("Near Los Angeles Tour").WithStart(34.05, -118.24).Build(t, ts.DB.DB)
		testutil.NewTourBuilder().WithName("Far Away In Oslo Tour").WithStart(59.91, 10.75).Build(t, ts.DB.DB)

		resp, err := http.Get(ts.APIURL("/tours/tours-within/300/center/34.1,-118.1/unit/km"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var docs []domain.Tour
		testutil.AssertSuccessData(t, resp, http.StatusOK, &docs)
		names := make([]string, 0, len(docs))
		for _, doc := range docs {
			names = append(names, doc.Name)
		}
		assert.Contains(t, names, "Near Los Angeles Tour")
		assert.NotContains(t, names, "Far Away In Oslo Tour")
	})
}
