package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/preference"
	"github.com/trezcool/bunkguard/core/subject"
	"github.com/trezcool/bunkguard/core/user"
	"github.com/trezcool/bunkguard/services/email"
	"github.com/trezcool/bunkguard/services/metrics"
	"github.com/trezcool/bunkguard/storage/cache/memory"
	"github.com/trezcool/bunkguard/storage/database/dummy"
	"github.com/trezcool/bunkguard/tests"
)

var (
	usrRepo  user.Repository
	subjRepo subject.Repository
)

func setup(t *testing.T) *commandLine {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := dummydb.Open()
	usrRepo = dummydb.NewUserRepository(db)
	subjRepo = dummydb.NewSubjectRepository(db)

	cache := memcache.New(conf)
	metrics, err := metricsvc.NewPrometheusMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	// start CLI
	return &commandLine{
		db:      new(sql.DB), // never reached: goose is mocked
		usrRepo: usrRepo,
		subjSvc: subject.NewService(subject.Deps{
			Repo:     subjRepo,
			PrefSvc:  preference.NewService(dummydb.NewPreferenceRepository(db), cache, logger, conf),
			Users:    userGetter{usrRepo},
			Cache:    cache,
			MailSvc:  emailsvc.NewConsoleServiceMock(logger, conf),
			Logger:   logger,
			Metrics:  metrics,
			CacheTTL: conf.Cache.TTL,
		}),
		out: io.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "semester_notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	t.Run("memory engine", func(t *testing.T) {
		cli.db = nil
		assert.Equal(t, errNoSQLEngine, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.StudentRoles, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}
			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(tt.extra.(extra).pwd))
			usr = refreshedUsr
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.StudentRoles, false)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t pwd"), nil }

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "new"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "new student", args: []string{"adduser", "-username", "New", "-email", "new@test.cd"}},
		{name: "new admin", args: []string{"adduser", "-username", "boss", "-email", "boss@test.cd", "-admin"}},
		{name: "existing user", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd", "-admin"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	ctx := context.Background()
	student, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "new"})
	require.NoError(t, err)
	assert.True(t, student.IsStudent())
	assert.False(t, student.IsAdmin())
	assert.True(t, student.Active())
	assert.NoError(t, student.CheckPassword("s3cr3t pwd"))

	boss, err := usrRepo.GetUser(ctx, user.GetFilter{Email: "boss@test.cd"})
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())

	updated, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())
	assert.True(t, updated.Active())
	assert.NoError(t, updated.CheckPassword("s3cr3t pwd"))
}

func Test_commandLine_recount(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.StudentRoles, true)
	maths := testutil.CreateSubject(t, subjRepo, usr.ID, "Maths", 2, 4)
	physics := testutil.CreateSubject(t, subjRepo, usr.ID, "Physics", 1, 1)

	now := time.Now().UTC()
	day := testutil.Date(t, "2026-01-05")
	for _, status := range []subject.Status{subject.StatusPresent, subject.StatusAbsent, subject.StatusCancelled} {
		_, _, err := subjRepo.MarkAttendance(ctx, subject.Log{
			SubjectID: maths.ID,
			OwnerID:   usr.ID,
			Date:      day,
			Status:    status,
			CreatedAt: now,
		})
		require.NoError(t, err)
	}

	// drift both counters
	for _, subj := range []subject.Subject{maths, physics} {
		_, err := subjRepo.UpdateSubject(ctx, usr.ID, subj.ID, func(s *subject.Subject) error {
			s.Attended, s.Total = 0, 0
			return nil
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		args      []string
		subjID    string
		wantAtt   int
		wantTot   int
		wantErr   error
		untouched *subject.Subject
	}{
		{name: "unknown flag", args: []string{"recount", "-lol"}, wantErr: errHelp},
		{name: "one subject", args: []string{"recount", "-subject", maths.ID}, subjID: maths.ID, wantAtt: 3, wantTot: 6, untouched: &physics},
		{name: "every subject", args: []string{"recount"}, subjID: physics.ID, wantAtt: 1, wantTot: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			subj, err := subjRepo.GetSubject(ctx, usr.ID, tt.subjID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAtt, subj.Attended)
			assert.Equal(t, tt.wantTot, subj.Total)

			if tt.untouched != nil {
				other, err := subjRepo.GetSubject(ctx, usr.ID, tt.untouched.ID)
				require.NoError(t, err)
				assert.Zero(t, other.Total)
			}
		})
	}
}
