package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAnswerSubmissionsCounter(t *testing.T) {
	counter := AnswerSubmissions().WithLabelValues("mcq", "created")
	before := testutil.ToFloat64(counter)
	counter.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	LevelEvaluations().WithLabelValues("true").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "exam_level_evaluations_total")
}
