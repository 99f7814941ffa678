package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, body []byte) {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload), string(body))
}

func TestStudentProfileContract(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.login(t, adminEmail, adminPassword)
	collegeID := srv.createCollege(t, adminToken, "Fine Arts")
	token := srv.registerStudentAccount(t, "contract@example.com")
	srv.createProfile(t, token, collegeID, "29901011234580", "200", "01000000010")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/profile", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, body := srv.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	validateBody(t, compileSchema(t, "student_profile.schema.json"), body)
}

func TestErrorEnvelopeContract(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.login(t, adminEmail, adminPassword)
	schema := compileSchema(t, "error.schema.json")

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{name: "validation", method: http.MethodPost, target: "/api/v1/admin/colleges", body: `{"name":""}`, status: http.StatusBadRequest},
		{name: "not found", method: http.MethodGet, target: "/api/v1/admin/exam-items/424242", status: http.StatusNotFound},
		{name: "bad identifier", method: http.MethodGet, target: "/api/v1/admin/students/abc", status: http.StatusBadRequest},
		{name: "item validation", method: http.MethodPost, target: "/api/v1/admin/exam-items", body: `{"kind":"mcq","question":"Q?","college_id":1}`, status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
				req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			} else {
				req = httptest.NewRequest(tc.method, tc.target, nil)
			}
			req.Header.Set(fiber.HeaderAuthorization, fmt.Sprintf("Bearer %s", adminToken))

			resp, body := srv.do(t, req)
			require.Equal(t, tc.status, resp.StatusCode, string(body))
			validateBody(t, schema, body)
		})
	}
}
