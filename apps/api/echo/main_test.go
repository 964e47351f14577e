package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/bunkguard/apps/api/echo"
	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/preference"
	"github.com/trezcool/bunkguard/core/semester"
	"github.com/trezcool/bunkguard/core/subject"
	"github.com/trezcool/bunkguard/core/user"
	"github.com/trezcool/bunkguard/services/email"
	"github.com/trezcool/bunkguard/services/metrics"
	"github.com/trezcool/bunkguard/storage/cache/memory"
	"github.com/trezcool/bunkguard/storage/database/dummy"
	"github.com/trezcool/bunkguard/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testApp is a Server running over fresh in-memory repositories.
type testApp struct {
	echoapi.Server
	conf     *core.Config
	usrRepo  user.Repository
	subjRepo subject.Repository
	usrSvc   user.Service
	subjSvc  subject.Service
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ClearSentMessages()

	// set up DB & repos
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	subjRepo := dummydb.NewSubjectRepository(db)

	// set up services
	cache := memcache.New(conf)
	mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)
	metrics, err := metricsvc.NewPrometheusMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheusMetrics(): %v", err)
	}
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, logger, conf)
	prefSvc := preference.NewService(dummydb.NewPreferenceRepository(db), cache, logger, conf)
	subjSvc := subject.NewService(subject.Deps{
		Repo:     subjRepo,
		PrefSvc:  prefSvc,
		Users:    usrSvc,
		Cache:    cache,
		MailSvc:  mailSvc,
		Logger:   logger,
		Metrics:  metrics,
		CacheTTL: conf.Cache.TTL,
	})
	semSvc := semester.NewService(dummydb.NewSemesterRepository(db))

	validate, translator := testutil.NewValidator()

	// set up server
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		SubjectSvc:     subjSvc,
		SemesterSvc:    semSvc,
		PrefSvc:        prefSvc,
		Validate:       validate,
		Translator:     translator,
		MetricsHandler: metrics.Handler(),
	})

	return &testApp{
		Server:   server,
		conf:     conf,
		usrRepo:  usrRepo,
		subjRepo: subjRepo,
		usrSvc:   usrSvc,
		subjSvc:  subjSvc,
	}
}

// run serves every test case & compares the responses.
func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList(): %v", err)
	}
	return data
}

// decode unmarshals the recorded response body into dest.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func TestHome(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to BunkGuard API!", rec.Body.String())
}
