package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/requestctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:        srv.URL + "/",
		Token:          "secret",
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, slog.Default())
	require.Error(t, err)
}

func TestCollection_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/categories", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"categories":[{"id":"c1","name":"Bolts"},{"id":"c2","name":"Anvils"}],"total":12}}`)
	})

	result, err := NewCollection[domain.Category](client, Categories).List(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Bolts", result.Items[0].Name)
	assert.Equal(t, 12, result.Total)
}

func TestCollection_List_TotalDefaultsToLength(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"blogs":[{"id":"b1"},{"id":"b2"},{"id":"b3"}]}}`)
	})

	result, err := NewCollection[domain.Blog](client, Blogs).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
}

func TestCollection_List_MissingKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"items":[]}}`)
	})

	_, err := NewCollection[domain.Category](client, Categories).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCollection_List_ErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"error","message":"not today"}`)
	})

	_, err := NewCollection[domain.Category](client, Categories).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "not today", Message(err))
}

func TestCollection_List_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusBadGateway, `{"status":"error","message":"upstream"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"products":[]}}`)
	})

	result, err := NewCollection[domain.Product](client, Products).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCollection_List_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewCollection[domain.Product](client, Products).List(context.Background())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, domain.EUNAVAILABLE, Code(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCollection_Create_NotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewCollection[domain.Category](client, Categories).Create(context.Background(), domain.CategoryInput{Name: "Bolts"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCollection_Create(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in domain.CategoryInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Bolts", in.Name)

		writeJSON(w, http.StatusCreated, `{"status":"success","data":{"category":{"id":"c9","name":"Bolts"}}}`)
	})

	created, err := NewCollection[domain.Category](client, Categories).Create(context.Background(), domain.CategoryInput{Name: "Bolts"})
	require.NoError(t, err)
	assert.Equal(t, "c9", created.ID)
}

func TestCollection_Create_Duplicate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"error","message":"Duplicate entry for name"}`)
	})

	_, err := NewCollection[domain.Category](client, Categories).Create(context.Background(), domain.CategoryInput{Name: "Bolts"})
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, Code(err))
	assert.Equal(t, "Duplicate entry for name", Message(err))
}

func TestCollection_UpdateAndDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/variants/v%201", r.URL.EscapedPath())
		switch r.Method {
		case http.MethodPatch:
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"variant":{"id":"v 1","sku":"SKU-2"}}}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	variants := NewCollection[domain.Variant](client, Variants)
	updated, err := variants.Update(context.Background(), "v 1", domain.VariantInput{SKU: "SKU-2"})
	require.NoError(t, err)
	assert.Equal(t, "SKU-2", updated.SKU)

	require.NoError(t, variants.Delete(context.Background(), "v 1"))
}

func TestCollection_Delete_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"status":"error","message":"Blog not found"}`)
	})

	err := NewCollection[domain.Blog](client, Blogs).Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, Code(err))
	assert.False(t, IsRetryable(err))
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>oops</html>`)
	})

	_, err := NewCollection[domain.Blog](client, Blogs).List(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := New(Config{BaseURL: srv.URL, MaxRetries: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = NewCollection[domain.Blog](client, Blogs).List(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ForwardsRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"images":[]}}`)
	})

	ctx := requestctx.WithRequestID(context.Background(), "req-123")
	_, err := NewImageCollection(client).List(ctx)
	require.NoError(t, err)
}

func TestImageCollection_Upload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "bolt.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "A bolt", r.FormValue("altText"))

		writeJSON(w, http.StatusCreated, `{"status":"success","data":{"image":{"id":"img1","url":"https://cdn/img1.png"}}}`)
	})

	img, err := NewImageCollection(client).Create(context.Background(), &domain.Upload{
		Filename:    "bolt.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
		AltText:     "A bolt",
	})
	require.NoError(t, err)
	assert.Equal(t, "img1", img.ID)
	assert.Equal(t, "https://cdn/img1.png", img.URL)
}

func TestImageCollection_Create_RejectsOtherPayloads(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := NewImageCollection(client).Create(context.Background(), domain.ImageInput{})
	require.Error(t, err)
}

func TestImageCollection_Batch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/batch", r.URL.Path)

		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body.IDs)

		writeJSON(w, http.StatusOK, `{"status":"success","data":{"images":[{"id":"a","url":"https://cdn/a"},{"id":"b","url":"https://cdn/b"}]}}`)
	})

	refs, err := NewImageCollection(client).Batch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ImageRef{{ID: "a", URL: "https://cdn/a"}, {ID: "b", URL: "https://cdn/b"}}, refs)
}

func TestClient_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{"status":"error","message":"slow down"}`)
	})

	err := NewCollection[domain.Category](client, Categories).Delete(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, domain.ERATELIMIT, Code(err))
}
