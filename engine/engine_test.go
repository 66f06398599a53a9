package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/engine/reconcile"
	"github.com/yemen-sarraf/sarraf/storage/memory"
	"github.com/yemen-sarraf/sarraf/storage/mock"
)

type (
	publishDelegate func(ctx context.Context, topic, title, body string) error
	ounceDelegate   func(ctx context.Context) (float64, error)
)

type mockNotifier struct {
	PublishFn publishDelegate
}

func (m *mockNotifier) Publish(ctx context.Context, topic, title, body string) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, topic, title, body)
	}

	return nil
}

type mockOunceProvider struct {
	OuncePriceFn ounceDelegate
}

func (m *mockOunceProvider) OuncePrice(ctx context.Context) (float64, error) {
	if m.OuncePriceFn != nil {
		return m.OuncePriceFn(ctx)
	}

	return 0, errors.New("not implemented")
}

func fixedOunce(price float64) *mockOunceProvider {
	return &mockOunceProvider{
		OuncePriceFn: func(_ context.Context) (float64, error) {
			return price, nil
		},
	}
}

func ratePage(body string) *httptest.Server {
	return httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, "<html><body><div>%s</div></body></html>", body)
		}),
	)
}

func sourceConfig(t *testing.T, urls ...string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Sources = urls

	return cfg
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	pages := []*httptest.Server{
		ratePage("سعر الدولار اليوم 534/537 في صنعاء"),
		ratePage("دولار امريكي 536/539"),
		ratePage("الدولار 535/538"),
		ratePage("سعر الدولار في عدن 1630/1642"),
		ratePage("ريال سعودي 141"),
	}

	urls := make([]string, 0, len(pages))

	for _, page := range pages {
		defer page.Close()

		urls = append(urls, page.URL)
	}

	var (
		store    = memory.NewStorage()
		notified = false

		notifier = &mockNotifier{
			PublishFn: func(_ context.Context, _, _, _ string) error {
				notified = true

				return nil
			},
		}
	)

	e, err := New(
		store,
		WithConfig(sourceConfig(t, urls...)),
		WithNotifier(notifier),
		WithOunceProvider(fixedOunce(4189.60)),
	)
	require.NoError(t, err)

	require.NoError(t, e.Update(context.Background()))

	ctx := context.Background()

	var got struct {
		USDBuy  int `json:"usd_buy"`
		USDSell int `json:"usd_sell"`
		SARBuy  int `json:"sar_buy"`
		SARSell int `json:"sar_sell"`
		Trend   int `json:"trend"`
	}

	require.NoError(t, store.Get(ctx, "rates/sanaa", &got))

	// Three agreeing sources reduce to their truncated mean
	assert.Equal(t, 535, got.USDBuy)
	assert.Equal(t, 538, got.USDSell)
	assert.Equal(t, 141, got.SARBuy)
	assert.Equal(t, 142, got.SARSell) // spread fallback, no sell candidates
	assert.Zero(t, got.Trend)

	require.NoError(t, store.Get(ctx, "rates/aden", &got))

	assert.Equal(t, 1630, got.USDBuy)
	assert.Equal(t, 1642, got.USDSell)
	assert.Equal(t, 426, got.SARBuy) // 1630 / 3.82, no SAR candidates at all
	assert.Equal(t, 430, got.SARSell)

	var gram21 int
	require.NoError(t, store.Get(ctx, "gold/sanaa/gram_21", &gram21))
	assert.Equal(t, 63000, gram21)

	require.NoError(t, store.Get(ctx, "gold/aden/gram_21", &gram21))
	assert.Equal(t, 192100, gram21)

	// The aggregated values match the previous-snapshot defaults, so
	// no push goes out
	assert.False(t, notified)

	date := reconcile.LocalTime(time.Now().UTC()).Format(reconcile.DateLayout)

	var point int
	require.NoError(t, store.Get(ctx, "history/sanaa/usd/"+date, &point))
	assert.Equal(t, 535, point)
}

func TestUpdate_AllSourcesDown(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	)
	defer down.Close()

	store := memory.NewStorage()

	e, err := New(
		store,
		WithConfig(sourceConfig(t, down.URL)),
		WithOunceProvider(&mockOunceProvider{
			OuncePriceFn: func(_ context.Context) (float64, error) {
				return 0, errors.New("market data down")
			},
		}),
	)
	require.NoError(t, err)

	require.NoError(t, e.Update(context.Background()))

	ctx := context.Background()

	// Defaults publish when nothing could be scraped
	var usdBuy int
	require.NoError(t, store.Get(ctx, "rates/sanaa/usd_buy", &usdBuy))
	assert.Equal(t, 535, usdBuy)

	require.NoError(t, store.Get(ctx, "rates/aden/usd_buy", &usdBuy))
	assert.Equal(t, 1630, usdBuy)

	// Gold degrades to the fallback ounce price
	var ounce float64
	require.NoError(t, store.Get(ctx, "gold/global_ounce_usd", &ounce))
	assert.Equal(t, 4189.60, ounce)
}

func TestUpdate_Notification(t *testing.T) {
	t.Parallel()

	page := ratePage("سعر الدولار اليوم 540/543 صنعاء")
	defer page.Close()

	store := memory.NewStorage()

	require.NoError(t, store.Update(context.Background(), map[string]any{
		"rates/sanaa/usd_buy": 535,
		"rates/aden/usd_buy":  1630,
	}))

	var (
		gotTitle string
		gotBody  string

		notifier = &mockNotifier{
			PublishFn: func(_ context.Context, _, title, body string) error {
				gotTitle = title
				gotBody = body

				return nil
			},
		}
	)

	e, err := New(
		store,
		WithConfig(sourceConfig(t, page.URL)),
		WithNotifier(notifier),
		WithOunceProvider(fixedOunce(4189.60)),
	)
	require.NoError(t, err)

	require.NoError(t, e.Update(context.Background()))

	// Sanaa moved by 5, Aden held steady; the arrow follows Aden
	assert.Contains(t, gotTitle, "🔻")
	assert.Equal(t, "صنعاء: 540 | عدن: 1630", gotBody)

	var trend int
	require.NoError(t, store.Get(context.Background(), "rates/sanaa/trend", &trend))
	assert.Equal(t, 1, trend)
}

func TestUpdate_NotificationFailureSwallowed(t *testing.T) {
	t.Parallel()

	page := ratePage("سعر الدولار اليوم 540/543 صنعاء")
	defer page.Close()

	store := memory.NewStorage()

	require.NoError(t, store.Update(context.Background(), map[string]any{
		"rates/sanaa/usd_buy": 535,
	}))

	notifier := &mockNotifier{
		PublishFn: func(_ context.Context, _, _, _ string) error {
			return errors.New("push service down")
		},
	}

	e, err := New(
		store,
		WithConfig(sourceConfig(t, page.URL)),
		WithNotifier(notifier),
		WithOunceProvider(fixedOunce(4189.60)),
	)
	require.NoError(t, err)

	// The snapshot committed before the push attempt, so the run succeeds
	assert.NoError(t, e.Update(context.Background()))
}

func TestUpdate_CommitFailure(t *testing.T) {
	t.Parallel()

	page := ratePage("سعر الدولار اليوم 535/538 صنعاء")
	defer page.Close()

	errStore := errors.New("store down")

	store := &mock.Store{
		UpdateFn: func(_ context.Context, _ map[string]any) error {
			return errStore
		},
	}

	e, err := New(
		store,
		WithConfig(sourceConfig(t, page.URL)),
		WithOunceProvider(fixedOunce(4189.60)),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Update(context.Background()), errStore)
}

func TestUpdate_PreviousSnapshotFailure(t *testing.T) {
	t.Parallel()

	page := ratePage("سعر الدولار اليوم 535/538 صنعاء")
	defer page.Close()

	errStore := errors.New("store down")

	updated := false

	store := &mock.Store{
		GetFn: func(_ context.Context, _ string, _ any) error {
			return errStore
		},
		UpdateFn: func(_ context.Context, _ map[string]any) error {
			updated = true

			return nil
		},
	}

	e, err := New(
		store,
		WithConfig(sourceConfig(t, page.URL)),
		WithOunceProvider(fixedOunce(4189.60)),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Update(context.Background()), errStore)
	assert.False(t, updated)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Sources = nil

	_, err := New(memory.NewStorage(), WithConfig(cfg))

	assert.ErrorIs(t, err, config.ErrNoSources)
}
