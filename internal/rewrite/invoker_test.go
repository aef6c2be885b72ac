package rewrite

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/diogo/msgcoach/internal/api"
	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/metrics"
	"github.com/diogo/msgcoach/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingSleep captures requested delays without waiting
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestPolicy_Delay(t *testing.T) {
	assert.Equal(t, 800*time.Millisecond, DefaultPolicy.Delay(1))
	assert.Equal(t, 1600*time.Millisecond, DefaultPolicy.Delay(2))
}

func TestPolicy_Budget(t *testing.T) {
	assert.Equal(t, 3*time.Minute+2400*time.Millisecond, DefaultPolicy.Budget())

	p := Policy{MaxAttempts: 2, BaseDelay: 10 * time.Millisecond, AttemptTimeout: time.Second}
	assert.Equal(t, 2*time.Second+20*time.Millisecond, p.Budget())
}

// stalledGenerator never answers; each call ends only when its context does
type stalledGenerator struct {
	calls atomic.Int32
}

func (g *stalledGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.calls.Add(1)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestInvoke_StalledAttemptsTimeOutAndRetry(t *testing.T) {
	gen := &stalledGenerator{}
	rs := &recordingSleep{}
	inv := NewInvoker(gen, WithSleep(rs.sleep), WithPolicy(Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		AttemptTimeout: 20 * time.Millisecond,
	}))

	out := inv.Invoke(context.Background(), "m", "p")

	assert.Equal(t, StateFailed, out.State)
	assert.Len(t, out.Attempts, 3)
	assert.EqualValues(t, 3, gen.calls.Load())
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Len(t, rs.delays, 2)
}

func TestInvoke_FirstAttemptSucceeds(t *testing.T) {
	gen := api.NewMockClient(api.MockResponse{Text: "done"})
	rs := &recordingSleep{}
	inv := NewInvoker(gen, WithSleep(rs.sleep))

	out := inv.Invoke(context.Background(), "gemini-2.5-flash", "p")

	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, "done", out.Text)
	assert.NoError(t, out.Err)
	assert.Len(t, out.Attempts, 1)
	assert.Empty(t, rs.delays)
	assert.Equal(t, 1, gen.Calls())
}

func TestInvoke_FailTwiceThenSucceed(t *testing.T) {
	boom := errors.New("503 unavailable")
	gen := api.NewMockClient(
		api.MockResponse{Err: boom},
		api.MockResponse{Err: boom},
		api.MockResponse{Text: "third time lucky"},
	)
	rs := &recordingSleep{}

	var retries []int
	inv := NewInvoker(gen,
		WithSleep(rs.sleep),
		OnRetry(func(next, max int, err error) {
			assert.Equal(t, 3, max)
			assert.ErrorIs(t, err, boom)
			retries = append(retries, next)
		}),
	)

	out := inv.Invoke(context.Background(), "gemini-2.5-flash", "p")

	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, "third time lucky", out.Text)
	assert.Equal(t, 3, gen.Calls())
	assert.Equal(t, []time.Duration{800 * time.Millisecond, 1600 * time.Millisecond}, rs.delays)
	assert.Equal(t, []int{2, 3}, retries)

	require.Len(t, out.Attempts, 3)
	assert.False(t, out.Attempts[0].OK())
	assert.False(t, out.Attempts[1].OK())
	assert.True(t, out.Attempts[2].OK())
	assert.Equal(t, 3, out.Attempts[2].N)
}

func TestInvoke_AllAttemptsFail(t *testing.T) {
	first := errors.New("first")
	last := apierrors.NewUsageLimitError("quota")
	gen := api.NewMockClient(
		api.MockResponse{Err: first},
		api.MockResponse{Err: first},
		api.MockResponse{Err: last},
	)
	rs := &recordingSleep{}
	inv := NewInvoker(gen, WithSleep(rs.sleep))

	out := inv.Invoke(context.Background(), "gemini-2.5-pro", "p")

	require.Equal(t, StateFailed, out.State)
	assert.Same(t, last, out.Err)
	assert.Equal(t, 3, gen.Calls(), "no fourth attempt")
	assert.Len(t, rs.delays, 2, "no sleep after the final attempt")
	assert.Empty(t, out.Text)
}

func TestInvoke_EveryErrorKindIsRetried(t *testing.T) {
	kinds := []error{
		apierrors.NewAuthError("bad key"),
		apierrors.NewUsageLimitError("quota"),
		apierrors.NewNetworkError("generate content", errors.New("reset")),
		apierrors.NewAPIError(500, "m", "internal"),
	}

	for _, kind := range kinds {
		gen := api.NewMockClient(api.MockResponse{Err: kind})
		inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

		out := inv.Invoke(context.Background(), "m", "p")
		assert.Equal(t, StateFailed, out.State)
		assert.Equal(t, 3, gen.Calls(), "kind %T", kind)
	}
}

func TestInvoke_EmptyTextCountsAsFailure(t *testing.T) {
	gen := api.NewMockClient(
		api.MockResponse{Text: "   "},
		api.MockResponse{Text: "real"},
	)
	inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

	out := inv.Invoke(context.Background(), "m", "p")

	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, "real", out.Text)
	assert.ErrorIs(t, out.Attempts[0].Err, apierrors.ErrNoContent)
}

func TestInvoke_Transitions(t *testing.T) {
	gen := api.NewMockClient(
		api.MockResponse{Err: errors.New("x")},
		api.MockResponse{Text: "ok"},
	)

	type step struct {
		from, to State
		n        int
	}
	var steps []step
	inv := NewInvoker(gen,
		WithSleep((&recordingSleep{}).sleep),
		OnTransition(func(from, to State, n int) {
			steps = append(steps, step{from, to, n})
		}),
	)

	inv.Invoke(context.Background(), "m", "p")

	assert.Equal(t, []step{
		{StateIdle, StateAttempting, 1},
		{StateAttempting, StateAttempting, 2},
		{StateAttempting, StateSuccess, 2},
	}, steps)
}

func TestInvoke_CanceledDuringBackoff(t *testing.T) {
	gen := api.NewMockClient(api.MockResponse{Err: errors.New("x")})
	ctx, cancel := context.WithCancel(context.Background())

	inv := NewInvoker(gen, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	out := inv.Invoke(ctx, "m", "p")

	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 1, gen.Calls())
}

func TestContextSleep(t *testing.T) {
	require.NoError(t, contextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, contextSleep(ctx, time.Hour), context.Canceled)
}

func TestRewrite_Success(t *testing.T) {
	gen := api.NewMockClient(api.MockResponse{Text: "**Rewritten Message:**\nWant to hang out this week?"})
	inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

	req := models.RewriteRequest{
		OriginalText:       "hey wanna hang out sometime maybe if ur free lol",
		Tone:               models.ToneConfident,
		SystemInstructions: models.DefaultSystemPrompt,
		ModelID:            models.Model25Flash.Name,
		PrivacyEnabled:     true,
	}

	res, err := inv.Rewrite(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "**Rewritten Message:**\nWant to hang out this week?", res.RewrittenText)
	assert.Equal(t, req, res.Request)
	assert.False(t, res.Masked)
	assert.Equal(t, 1, res.Attempts)

	prompt := gen.LastPrompt()
	assert.Contains(t, prompt, "Rewrite the message to sound confident, natural, and respectful.")
	assert.Contains(t, prompt, models.DefaultSystemPrompt)
	assert.True(t, strings.HasSuffix(prompt, "Message:\nhey wanna hang out sometime maybe if ur free lol\n"))
	assert.Equal(t, []string{"gemini-2.5-flash"}, gen.Models())
}

func TestRewrite_PrivacyMasksPrompt(t *testing.T) {
	gen := api.NewMockClient(api.MockResponse{Text: "ok"})
	inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

	res, err := inv.Rewrite(context.Background(), models.RewriteRequest{
		OriginalText:   "text me at 555-123-4567 or jo@mail.com",
		Tone:           models.ToneFriendly,
		ModelID:        "m",
		PrivacyEnabled: true,
	})
	require.NoError(t, err)

	assert.True(t, res.Masked)
	assert.Equal(t, "text me at [phone] or [email]", res.SanitizedText)
	assert.NotContains(t, gen.LastPrompt(), "555-123-4567")
	assert.NotContains(t, gen.LastPrompt(), "jo@mail.com")
}

func TestRewrite_PrivacyOffSendsVerbatim(t *testing.T) {
	gen := api.NewMockClient(api.MockResponse{Text: "ok"})
	inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

	res, err := inv.Rewrite(context.Background(), models.RewriteRequest{
		OriginalText: "mail jo@mail.com",
		Tone:         models.ToneWitty,
		ModelID:      "m",
	})
	require.NoError(t, err)

	assert.False(t, res.Masked)
	assert.Contains(t, gen.LastPrompt(), "mail jo@mail.com")
}

func TestRewrite_EmptyInputMakesNoCalls(t *testing.T) {
	gen := api.NewMockClient()
	inv := NewInvoker(gen)

	for _, in := range []string{"", "   ", "\n\t"} {
		res, err := inv.Rewrite(context.Background(), models.RewriteRequest{OriginalText: in})
		assert.Nil(t, res)
		assert.True(t, apierrors.IsEmptyInput(err))
	}
	assert.Zero(t, gen.Calls())
}

func TestRewrite_FailureReturnsNoResult(t *testing.T) {
	boom := errors.New("down")
	gen := api.NewMockClient(api.MockResponse{Err: boom})
	inv := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep))

	res, err := inv.Rewrite(context.Background(), models.RewriteRequest{
		OriginalText: "hi",
		Tone:         models.ToneCasual,
		ModelID:      "m",
	})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, gen.Calls())
}

func TestInvoke_CountsFailureKinds(t *testing.T) {
	const model = "metrics-model"
	quota := metrics.AttemptFailuresTotal.WithLabelValues(model, "quota")
	network := metrics.AttemptFailuresTotal.WithLabelValues(model, "network")
	beforeQuota, beforeNetwork := testutil.ToFloat64(quota), testutil.ToFloat64(network)

	gen := api.NewMockClient(
		api.MockResponse{Err: apierrors.NewUsageLimitError("slow down")},
		api.MockResponse{Err: apierrors.NewNetworkError("generate", errors.New("reset"))},
		api.MockResponse{Text: "ok"},
	)
	out := NewInvoker(gen, WithSleep((&recordingSleep{}).sleep)).Invoke(context.Background(), model, "p")

	require.Equal(t, StateSuccess, out.State)
	assert.Equal(t, beforeQuota+1, testutil.ToFloat64(quota))
	assert.Equal(t, beforeNetwork+1, testutil.ToFloat64(network))
}
