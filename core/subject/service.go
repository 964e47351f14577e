package subject

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/attendance"
	"github.com/trezcool/bunkguard/core/preference"
	"github.com/trezcool/bunkguard/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("subject not found")
	ErrLogNotFound       = errors.New("attendance log not found")
	ErrTimetableNotFound = errors.New("timetable entry not found")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		// QuerySubjects lists the owner's subjects, filtered on QueryFilter.Search (name or code, case-insensitive).
		// Subjects are ordered by name unless ordering says otherwise.
		QuerySubjects(ctx context.Context, ownerID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error)
		// GetSubject finds a subject by ID. An empty ownerID matches any owner.
		GetSubject(ctx context.Context, ownerID, id string) (Subject, error)
		// UpdateSubject locks the owner's subject, lets update modify the latest stored version
		// and saves it. Nothing is saved when update fails.
		UpdateSubject(ctx context.Context, ownerID, id string, update func(subj *Subject) error) (Subject, error)
		// DeleteSubjectsByID deletes the owner's subjects with their logs & timetable entries.
		DeleteSubjectsByID(ctx context.Context, ownerID string, ids ...string) (int, error)

		// MarkAttendance inserts the log and applies its counter deltas to the subject atomically.
		MarkAttendance(ctx context.Context, log Log) (Log, Subject, error)
		// UndoAttendance deletes the log and reverts its counter deltas atomically.
		UndoAttendance(ctx context.Context, ownerID, subjectID, logID string) (Subject, error)
		// QueryLogs lists logs ordered by date then creation time.
		QueryLogs(ctx context.Context, filter LogFilter) ([]Log, error)
		// RecountSubjects rebuilds counters from the base counters & the logs.
		// No ids means every subject.
		RecountSubjects(ctx context.Context, ids ...string) ([]Subject, error)

		CreateTimetableEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error)
		// QueryTimetable lists the owner's entries ordered by weekday then start time.
		QueryTimetable(ctx context.Context, ownerID string, weekday *int) ([]TimetableEntry, error)
		DeleteTimetableEntry(ctx context.Context, ownerID, id string) error
	}

	// UserGetter finds the owner of a subject.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		Create(ctx context.Context, ownerID string, ns NewSubject) (Subject, error)
		Query(ctx context.Context, ownerID string, filter *QueryFilter, ordering []core.DBOrdering) ([]View, error)
		Get(ctx context.Context, ownerID, id string) (Subject, error)
		View(ctx context.Context, subj Subject) (View, error)
		Update(ctx context.Context, subj Subject, us UpdateSubject) (Subject, error)
		Delete(ctx context.Context, ownerID string, ids ...string) (int, error)
		// Project projects the subject against target, or against its effective target when nil.
		Project(ctx context.Context, subj Subject, target *float64) (attendance.Projection, error)

		Mark(ctx context.Context, subj Subject, nl NewLog) (Log, Subject, error)
		Undo(ctx context.Context, subj Subject, logID string) (Subject, error)
		Logs(ctx context.Context, filter LogFilter) ([]Log, error)
		Calendar(ctx context.Context, ownerID string, from, to time.Time) ([]CalendarDay, error)
		Recount(ctx context.Context, ids ...string) ([]Subject, error)

		AddTimetableEntry(ctx context.Context, ownerID string, ne NewTimetableEntry) (TimetableEntry, error)
		Timetable(ctx context.Context, ownerID string, weekday *int) ([]TimetableEntry, error)
		DeleteTimetableEntry(ctx context.Context, ownerID, id string) error

		Dashboard(ctx context.Context, ownerID string) (Dashboard, error)
		Report(ctx context.Context, ownerID string, from, to time.Time) (Report, error)
		InvalidateDashboard(ctx context.Context, ownerID string)
	}

	Deps struct {
		Repo     Repository
		PrefSvc  preference.Service
		Users    UserGetter
		Cache    core.Cache
		MailSvc  core.EmailService
		Logger   core.Logger
		Metrics  core.Metrics
		CacheTTL time.Duration
	}

	service struct {
		Deps
	}
)

var _ Service = (*service)(nil)

// NewService returns a subject Service. Dashboards are invalidated whenever preferences change.
func NewService(deps Deps) Service {
	svc := &service{Deps: deps}
	svc.PrefSvc.OnChange(svc.InvalidateDashboard)
	return svc
}

func dashboardKey(ownerID string) string {
	return core.CacheKey("dashboard", ownerID)
}

func (svc *service) InvalidateDashboard(ctx context.Context, ownerID string) {
	if err := svc.Cache.Delete(ctx, dashboardKey(ownerID)); err != nil {
		svc.Logger.Warn(fmt.Sprintf("invalidating dashboard: %v", err), err, map[string]interface{}{"owner_id": ownerID})
	}
}

func (svc *service) Create(ctx context.Context, ownerID string, ns NewSubject) (Subject, error) {
	if err := attendance.ValidateCounter(ns.Attended, ns.Total); err != nil {
		return Subject{}, core.InvalidField("attended", err)
	}

	now := time.Now().UTC()
	subj, err := svc.Repo.CreateSubject(ctx, Subject{
		OwnerID:       ownerID,
		Name:          ns.Name,
		Code:          ns.Code,
		Attended:      ns.Attended,
		Total:         ns.Total,
		BaseAttended:  ns.Attended,
		BaseTotal:     ns.Total,
		TargetPercent: ns.TargetPercent,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	svc.InvalidateDashboard(ctx, ownerID)
	return subj, nil
}

func (svc *service) Query(ctx context.Context, ownerID string, filter *QueryFilter, ordering []core.DBOrdering) ([]View, error) {
	subjects, err := svc.Repo.QuerySubjects(ctx, ownerID, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	prefs, err := svc.PrefSvc.Get(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "getting preferences")
	}

	views := make([]View, 0, len(subjects))
	for _, subj := range subjects {
		view := svc.view(subj, prefs)
		if filter != nil && filter.Tier != "" && string(view.Classification.Tier) != filter.Tier {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Subject, error) {
	return svc.Repo.GetSubject(ctx, ownerID, id)
}

func (svc *service) view(subj Subject, prefs preference.Preferences) View {
	target := prefs.TargetPercent
	if subj.TargetPercent != nil {
		target = *subj.TargetPercent
	}
	return View{
		Subject:        subj,
		Classification: attendance.Classify(subj.Attended, subj.Total),
		Projection:     attendance.Project(subj.Attended, subj.Total, target),
	}
}

func (svc *service) View(ctx context.Context, subj Subject) (View, error) {
	prefs, err := svc.PrefSvc.Get(ctx, subj.OwnerID)
	if err != nil {
		return View{}, errors.Wrap(err, "getting preferences")
	}
	return svc.view(subj, prefs), nil
}

// Update applies us to the stored subject. subj only identifies it: counters may have moved since it was loaded.
func (svc *service) Update(ctx context.Context, subj Subject, us UpdateSubject) (Subject, error) {
	updated, err := svc.Repo.UpdateSubject(ctx, subj.OwnerID, subj.ID, func(cur *Subject) error {
		if us.Name != nil {
			cur.Name = *us.Name
		}
		if us.Code != nil {
			cur.Code = *us.Code
		}
		if us.ClearTarget {
			cur.TargetPercent = nil
		} else if us.TargetPercent != nil {
			cur.TargetPercent = us.TargetPercent
		}

		// a manual correction moves the base counters so that recounts keep it
		if us.Attended != nil || us.Total != nil {
			attended, total := cur.Attended, cur.Total
			if us.Attended != nil {
				attended = *us.Attended
			}
			if us.Total != nil {
				total = *us.Total
			}
			if err := attendance.ValidateCounter(attended, total); err != nil {
				return core.InvalidField("attended", err)
			}
			cur.BaseAttended += attended - cur.Attended
			cur.BaseTotal += total - cur.Total
			cur.Attended, cur.Total = attended, total
		}
		cur.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Subject{}, err
		}
		if _, ok := core.AsValidationError(err); ok {
			return Subject{}, err
		}
		return Subject{}, errors.Wrap(err, "updating subject")
	}
	svc.InvalidateDashboard(ctx, updated.OwnerID)
	return updated, nil
}

func (svc *service) Delete(ctx context.Context, ownerID string, ids ...string) (int, error) {
	cnt, err := svc.Repo.DeleteSubjectsByID(ctx, ownerID, ids...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting subjects")
	}
	if cnt > 0 {
		svc.InvalidateDashboard(ctx, ownerID)
	}
	return cnt, nil
}

func (svc *service) Project(ctx context.Context, subj Subject, target *float64) (attendance.Projection, error) {
	if target == nil {
		t, err := svc.PrefSvc.TargetFor(ctx, subj.OwnerID, subj.TargetPercent)
		if err != nil {
			return attendance.Projection{}, errors.Wrap(err, "resolving target")
		}
		target = &t
	}
	if err := attendance.ValidateTarget(*target); err != nil {
		return attendance.Projection{}, core.InvalidField("target", err)
	}
	return attendance.Project(subj.Attended, subj.Total, *target), nil
}

func (svc *service) Mark(ctx context.Context, subj Subject, nl NewLog) (Log, Subject, error) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if nl.Date != "" {
		d, err := core.ParseDate(nl.Date)
		if err != nil {
			return Log{}, Subject{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "must be a date formatted as YYYY-MM-DD"})
		}
		date = d
	}

	before := attendance.Classify(subj.Attended, subj.Total)
	log, updated, err := svc.Repo.MarkAttendance(ctx, Log{
		SubjectID: subj.ID,
		OwnerID:   subj.OwnerID,
		Date:      date,
		Status:    nl.Status,
		Note:      nl.Note,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Log{}, Subject{}, errors.Wrap(err, "marking attendance")
	}
	svc.Metrics.AttendanceMarked(string(log.Status))
	svc.InvalidateDashboard(ctx, subj.OwnerID)

	after := attendance.Classify(updated.Attended, updated.Total)
	if after.Tier == attendance.TierCritical && before.Tier.Rank() < after.Tier.Rank() {
		svc.alertLowAttendance(ctx, updated, after)
	}
	return log, updated, nil
}

// alertLowAttendance emails the owner of a subject that just dropped into the critical tier.
func (svc *service) alertLowAttendance(ctx context.Context, subj Subject, cls attendance.Classification) {
	prefs, err := svc.PrefSvc.Get(ctx, subj.OwnerID)
	if err != nil {
		svc.Logger.Error(fmt.Sprintf("getting preferences: %v", err), err, subj)
		return
	}
	if !prefs.AlertsEnabled {
		return
	}
	usr, err := svc.Users.GetByID(ctx, subj.OwnerID)
	if err != nil {
		svc.Logger.Error(fmt.Sprintf("getting subject owner: %v", err), err, subj)
		return
	}
	if usr.Email == "" {
		return
	}

	target := prefs.TargetPercent
	if subj.TargetPercent != nil {
		target = *subj.TargetPercent
	}
	proj := attendance.Project(subj.Attended, subj.Total, target)

	svc.MailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Low attendance in %s", subj.Name),
		Category:     core.MailAttendanceAlert,
		TemplateName: "attendance_alert",
		TemplateData: map[string]interface{}{
			"Name":          usr.Name,
			"Subject":       subj.Name,
			"Percentage":    fmt.Sprintf("%.2f", cls.Percentage),
			"TargetPercent": fmt.Sprintf("%.2f", target),
			"ClassesNeeded": proj.Count,
			"Unbounded":     proj.Unbounded,
		},
	})
	svc.Metrics.AlertSent("low_attendance")
}

func (svc *service) Undo(ctx context.Context, subj Subject, logID string) (Subject, error) {
	updated, err := svc.Repo.UndoAttendance(ctx, subj.OwnerID, subj.ID, logID)
	if err != nil {
		if errors.Cause(err) == ErrLogNotFound {
			return Subject{}, err
		}
		return Subject{}, errors.Wrap(err, "undoing attendance")
	}
	svc.InvalidateDashboard(ctx, subj.OwnerID)
	return updated, nil
}

func (svc *service) Logs(ctx context.Context, filter LogFilter) ([]Log, error) {
	return svc.Repo.QueryLogs(ctx, filter)
}

func (svc *service) Calendar(ctx context.Context, ownerID string, from, to time.Time) ([]CalendarDay, error) {
	logs, err := svc.Repo.QueryLogs(ctx, LogFilter{OwnerID: ownerID, From: from, To: to})
	if err != nil {
		return nil, errors.Wrap(err, "querying logs")
	}

	days := make([]CalendarDay, 0)
	for _, log := range logs {
		date := log.Date.UTC().Format(core.DateLayout)
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Logs = append(days[n-1].Logs, log)
			continue
		}
		days = append(days, CalendarDay{Date: date, Logs: []Log{log}})
	}
	return days, nil
}

func (svc *service) Recount(ctx context.Context, ids ...string) ([]Subject, error) {
	subjects, err := svc.Repo.RecountSubjects(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "recounting subjects")
	}
	owners := make(map[string]bool)
	for _, subj := range subjects {
		if !owners[subj.OwnerID] {
			owners[subj.OwnerID] = true
			svc.InvalidateDashboard(ctx, subj.OwnerID)
		}
	}
	return subjects, nil
}

func (svc *service) AddTimetableEntry(ctx context.Context, ownerID string, ne NewTimetableEntry) (TimetableEntry, error) {
	if _, err := svc.Repo.GetSubject(ctx, ownerID, ne.SubjectID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return TimetableEntry{}, core.NewValidationError(err, core.FieldError{Field: "subject_id", Error: "invalid value"})
		}
		return TimetableEntry{}, errors.Wrap(err, "finding subject")
	}

	entry, err := svc.Repo.CreateTimetableEntry(ctx, TimetableEntry{
		OwnerID:   ownerID,
		SubjectID: ne.SubjectID,
		Weekday:   *ne.Weekday,
		StartsAt:  ne.StartsAt,
		EndsAt:    ne.EndsAt,
		Room:      ne.Room,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return TimetableEntry{}, errors.Wrap(err, "creating timetable entry")
	}
	return entry, nil
}

func (svc *service) Timetable(ctx context.Context, ownerID string, weekday *int) ([]TimetableEntry, error) {
	return svc.Repo.QueryTimetable(ctx, ownerID, weekday)
}

func (svc *service) DeleteTimetableEntry(ctx context.Context, ownerID, id string) error {
	return svc.Repo.DeleteTimetableEntry(ctx, ownerID, id)
}

func (svc *service) Dashboard(ctx context.Context, ownerID string) (Dashboard, error) {
	var dash Dashboard
	found, err := svc.Cache.Get(ctx, dashboardKey(ownerID), &dash)
	if err != nil {
		svc.Logger.Warn(fmt.Sprintf("reading cached dashboard: %v", err), err, map[string]interface{}{"owner_id": ownerID})
	}
	svc.Metrics.DashboardCacheLookup(found)
	if found {
		return dash, nil
	}

	views, err := svc.Query(ctx, ownerID, nil, nil)
	if err != nil {
		return Dashboard{}, err
	}
	logs, err := svc.Repo.QueryLogs(ctx, LogFilter{OwnerID: ownerID})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying logs")
	}
	prefs, err := svc.PrefSvc.Get(ctx, ownerID)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "getting preferences")
	}

	dash = Dashboard{
		Subjects:      views,
		Summary:       attendance.Summarize(statuses(views), facts(logs)),
		TargetPercent: prefs.TargetPercent,
		GeneratedAt:   time.Now().UTC(),
	}
	if err = svc.Cache.Set(ctx, dashboardKey(ownerID), dash, svc.CacheTTL); err != nil {
		svc.Logger.Warn(fmt.Sprintf("caching dashboard: %v", err), err, map[string]interface{}{"owner_id": ownerID})
	}
	return dash, nil
}

func (svc *service) Report(ctx context.Context, ownerID string, from, to time.Time) (Report, error) {
	subjects, err := svc.Repo.QuerySubjects(ctx, ownerID, nil, nil)
	if err != nil {
		return Report{}, errors.Wrap(err, "querying subjects")
	}
	logs, err := svc.Repo.QueryLogs(ctx, LogFilter{OwnerID: ownerID, From: from, To: to})
	if err != nil {
		return Report{}, errors.Wrap(err, "querying logs")
	}

	rep := Report{Subjects: make([]SubjectReport, 0, len(subjects))}
	if !from.IsZero() {
		rep.From = from.Format(core.DateLayout)
	}
	if !to.IsZero() {
		rep.To = to.Format(core.DateLayout)
	}

	// a bounded report counts the logs in range; an unbounded one uses the counters
	bounded := !(from.IsZero() && to.IsZero())
	counts := make(map[string]map[Status]int, len(subjects))
	for _, log := range logs {
		if counts[log.SubjectID] == nil {
			counts[log.SubjectID] = make(map[Status]int, len(Statuses))
		}
		counts[log.SubjectID][log.Status]++
	}

	standings := make([]attendance.SubjectStatus, 0, len(subjects))
	for _, subj := range subjects {
		cnt := counts[subj.ID]
		if cnt == nil {
			cnt = make(map[Status]int, len(Statuses))
		}
		for _, s := range Statuses {
			if _, ok := cnt[s]; !ok {
				cnt[s] = 0
			}
		}
		rep.Subjects = append(rep.Subjects, SubjectReport{SubjectID: subj.ID, Name: subj.Name, Counts: cnt})

		attended, total := subj.Attended, subj.Total
		if bounded {
			attended, total = 0, 0
			for status, n := range cnt {
				da, dt := status.Deltas()
				attended += da * n
				total += dt * n
			}
		}
		standings = append(standings, attendance.SubjectStatus{
			ID:             subj.ID,
			Name:           subj.Name,
			Attended:       attended,
			Total:          total,
			Classification: attendance.Classify(attended, total),
		})
	}
	sort.SliceStable(rep.Subjects, func(i, j int) bool {
		return strings.ToLower(rep.Subjects[i].Name) < strings.ToLower(rep.Subjects[j].Name)
	})
	rep.Summary = attendance.Summarize(standings, facts(logs))
	return rep, nil
}

func statuses(views []View) []attendance.SubjectStatus {
	res := make([]attendance.SubjectStatus, 0, len(views))
	for _, v := range views {
		res = append(res, attendance.SubjectStatus{
			ID:             v.ID,
			Name:           v.Name,
			Attended:       v.Attended,
			Total:          v.Total,
			Classification: v.Classification,
		})
	}
	return res
}

func facts(logs []Log) []attendance.LogFact {
	res := make([]attendance.LogFact, 0, len(logs))
	for _, l := range logs {
		res = append(res, l.Fact())
	}
	return res
}
