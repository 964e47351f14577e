package echoapi_test

import (
	"net/http"
	"testing"

	echoapi "github.com/trezcool/bunkguard/apps/api/echo"
	"github.com/trezcool/bunkguard/core/attendance"
)

func Test_toolsApi(t *testing.T) {
	app := setup(t)

	app.run(t, []httpTest{
		{
			name: "projection: required fields", method: http.MethodPost, path: "/api/tools/projection", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"attended":       "this field is required",
				"total":          "this field is required",
				"target_percent": "target_percent must be greater than 0",
			}),
		},
		{
			name: "projection: attended above total", method: http.MethodPost, path: "/api/tools/projection",
			body:     []byte(`{"attended": 5, "total": 4, "target_percent": 75}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"attended": "attended cannot exceed total: invalid argument"}),
		},
		{
			name: "projection: safe skips", method: http.MethodPost, path: "/api/tools/projection",
			body: []byte(`{"attended": 18, "total": 20, "target_percent": 75}`),
			wantData: marshalObj(t, echoapi.ProjectionResponse{
				Classification: attendance.Classification{Percentage: 90, Tier: attendance.TierSafe, Color: attendance.TierSafe.Color()},
				Projection:     attendance.Projection{TargetPercent: 75, Direction: attendance.SafeSkips, Count: 4},
			}),
		},
		{
			name: "projection: nothing attended yet", method: http.MethodPost, path: "/api/tools/projection",
			body: []byte(`{"attended": 0, "total": 0, "target_percent": 75}`),
			wantData: marshalObj(t, echoapi.ProjectionResponse{
				Classification: attendance.Classification{Percentage: 0, Tier: attendance.TierCritical, Color: attendance.TierCritical.Color()},
				Projection:     attendance.Projection{TargetPercent: 75, Direction: attendance.ClassesNeeded, Count: 1},
			}),
		},
		{
			name: "projection: vanishing target", method: http.MethodPost, path: "/api/tools/projection",
			body: []byte(`{"attended": 1, "total": 1, "target_percent": 1e-300}`),
			wantData: marshalObj(t, echoapi.ProjectionResponse{
				Classification: attendance.Classification{Percentage: 100, Tier: attendance.TierSafe, Color: attendance.TierSafe.Color()},
				Projection:     attendance.Projection{TargetPercent: 1e-300, Direction: attendance.SafeSkips, Unbounded: true},
			}),
		},
		{
			name: "sgpa: no course", method: http.MethodPost, path: "/api/tools/sgpa", body: []byte(`{"courses": []}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"courses": "courses must contain at least 1 item"}),
		},
		{
			name: "sgpa: unknown grade", method: http.MethodPost, path: "/api/tools/sgpa",
			body:     []byte(`{"courses": [{"credits": 3, "grade": "E"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"grade": "grade must be one of O, A+, A, B+, B, C, P or F"}),
		},
		{
			name: "sgpa", method: http.MethodPost, path: "/api/tools/sgpa",
			body:     []byte(`{"courses": [{"credits": 4, "grade": "o"}, {"credits": 4, "grade": " f "}]}`),
			wantData: marshalObj(t, echoapi.SGPAResponse{SGPA: 5, Credits: 8}),
		},
	})
}
