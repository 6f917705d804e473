package application

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

// In-memory fakes of the ports. They reproduce the repository contracts the
// service relies on (single-PENDING check lives in the service path, numbering
// and promote/revert semantics live here) with a deterministic clock.

type fakeUsers struct {
	byID map[uuid.UUID]domain.User
}

func (f *fakeUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	if _, ok := f.byID[params.UserID]; ok {
		return domain.User{}, domain.ErrConflict
	}
	user := domain.User{UserID: params.UserID, Username: params.Username, Role: params.Role, CreatedAt: params.Now}
	f.byID[params.UserID] = user
	return user, nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, user := range f.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

type fakeTasks struct {
	byID map[uuid.UUID]domain.Task
}

func (f *fakeTasks) Create(_ context.Context, params ports.CreateTaskParams) (domain.Task, error) {
	task := domain.Task{
		TaskID: uuid.New(), Title: params.Title, Assignee: params.Assignee, Status: params.Status,
		EndsOn: params.EndsOn, CreatedBy: params.CreatedBy, CreatedAt: params.Now, UpdatedAt: params.Now,
	}
	f.byID[task.TaskID] = task
	return task, nil
}

func (f *fakeTasks) GetByID(_ context.Context, taskID uuid.UUID) (domain.Task, error) {
	task, ok := f.byID[taskID]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTasks) List(_ context.Context, limit, _ int) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.byID))
	for _, task := range f.byID {
		out = append(out, task)
	}
	if len(out) > limit && limit > 0 {
		out = out[:limit]
	}
	return out, nil
}

type fakeExtensions struct {
	tasks    *fakeTasks
	audits   *fakeAudits
	requests []domain.ExtensionRequest
}

func (f *fakeExtensions) Create(_ context.Context, params ports.CreateExtensionRequestParams) (domain.ExtensionRequest, error) {
	number := 1
	for _, req := range f.requests {
		if req.TaskID == params.TaskID {
			if req.Status == domain.ExtensionStatusPending {
				return domain.ExtensionRequest{}, domain.ErrPendingRequestExists
			}
			number++
		}
	}
	created := domain.ExtensionRequest{
		RequestID: uuid.New(), TaskID: params.TaskID, Assignee: params.Assignee, Title: params.Title,
		OldEndsOn: params.OldEndsOn, NewEndsOn: params.NewEndsOn, Reason: params.Reason,
		Status: domain.ExtensionStatusPending, RequestNumber: number, CreatedBy: params.CreatedBy,
		CreatedAt: params.Now, UpdatedAt: params.Now,
	}
	f.requests = append(f.requests, created)
	return created, nil
}

func (f *fakeExtensions) GetByID(_ context.Context, requestID uuid.UUID) (domain.ExtensionRequest, error) {
	for _, req := range f.requests {
		if req.RequestID == requestID {
			return req, nil
		}
	}
	return domain.ExtensionRequest{}, domain.ErrNotFound
}

func (f *fakeExtensions) GetLatestByTaskID(_ context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error) {
	return f.latest(func(req domain.ExtensionRequest) bool { return req.TaskID == taskID }), nil
}

func (f *fakeExtensions) GetLatestResolvedByTaskID(_ context.Context, taskID uuid.UUID) (*domain.ExtensionRequest, error) {
	return f.latest(func(req domain.ExtensionRequest) bool {
		return req.TaskID == taskID && req.Status.Resolved()
	}), nil
}

func (f *fakeExtensions) GetLatestByAssignee(_ context.Context, assignee uuid.UUID) (*domain.ExtensionRequest, error) {
	return f.latest(func(req domain.ExtensionRequest) bool { return req.Assignee == assignee }), nil
}

func (f *fakeExtensions) latest(match func(domain.ExtensionRequest) bool) *domain.ExtensionRequest {
	var found *domain.ExtensionRequest
	for i := range f.requests {
		req := f.requests[i]
		if !match(req) {
			continue
		}
		if found == nil || req.CreatedAt.After(found.CreatedAt) {
			found = &f.requests[i]
		}
	}
	if found == nil {
		return nil
	}
	copied := *found
	return &copied
}

func (f *fakeExtensions) List(_ context.Context, filter ports.ExtensionRequestFilter) (ports.ExtensionRequestPage, error) {
	matched := make([]domain.ExtensionRequest, 0, len(f.requests))
	for _, req := range f.requests {
		if filter.Assignee != nil && req.Assignee != *filter.Assignee {
			continue
		}
		if filter.TaskID != nil && req.TaskID != *filter.TaskID {
			continue
		}
		if len(filter.Statuses) > 0 {
			ok := false
			for _, status := range filter.Statuses {
				if req.Status == status {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.Order == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	start := 0
	if filter.Cursor != "" {
		for i, req := range matched {
			if req.RequestID.String() == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	page := ports.ExtensionRequestPage{}
	for i := start; i < len(matched) && len(page.Requests) < filter.Size; i++ {
		page.Requests = append(page.Requests, matched[i])
	}
	if start+len(page.Requests) < len(matched) && len(page.Requests) > 0 {
		page.NextCursor = page.Requests[len(page.Requests)-1].RequestID.String()
	}
	return page, nil
}

func (f *fakeExtensions) Resolve(_ context.Context, params ports.ResolveExtensionRequestParams) (domain.ExtensionRequest, error) {
	for i := range f.requests {
		if f.requests[i].RequestID != params.RequestID {
			continue
		}
		if f.requests[i].Status != domain.ExtensionStatusPending {
			return domain.ExtensionRequest{}, domain.ErrAlreadyResolved
		}
		f.requests[i].Status = params.NewStatus
		f.requests[i].ResolvedBy = &params.ResolvedBy
		f.requests[i].ResolvedAt = &params.Now
		f.requests[i].UpdatedAt = params.Now
		if params.NewStatus == domain.ExtensionStatusApproved && f.tasks != nil {
			if task, ok := f.tasks.byID[f.requests[i].TaskID]; ok {
				task.EndsOn = f.requests[i].NewEndsOn
				task.UpdatedAt = params.Now
				f.tasks.byID[task.TaskID] = task
			}
		}
		return f.requests[i], nil
	}
	return domain.ExtensionRequest{}, domain.ErrNotFound
}

func (f *fakeExtensions) UpdateDetails(_ context.Context, params ports.UpdateExtensionDetailsParams) (domain.ExtensionRequest, error) {
	for i := range f.requests {
		if f.requests[i].RequestID != params.RequestID {
			continue
		}
		if f.requests[i].Status != domain.ExtensionStatusPending {
			return domain.ExtensionRequest{}, domain.ErrAlreadyResolved
		}
		if params.Title != nil && *params.Title != f.requests[i].Title {
			f.appendUpdateAudit(f.requests[i], params.EditedBy, "title", f.requests[i].Title, *params.Title)
			f.requests[i].Title = *params.Title
		}
		if params.Reason != nil && *params.Reason != f.requests[i].Reason {
			f.appendUpdateAudit(f.requests[i], params.EditedBy, "reason", f.requests[i].Reason, *params.Reason)
			f.requests[i].Reason = *params.Reason
		}
		if params.NewEndsOn != nil && *params.NewEndsOn != f.requests[i].NewEndsOn {
			f.appendUpdateAudit(f.requests[i], params.EditedBy, "newEndsOn", f.requests[i].NewEndsOn, *params.NewEndsOn)
			f.requests[i].NewEndsOn = *params.NewEndsOn
		}
		f.requests[i].UpdatedAt = params.Now
		return f.requests[i], nil
	}
	return domain.ExtensionRequest{}, domain.ErrNotFound
}

// appendUpdateAudit mirrors the repository contract of one audit row per
// changed field on a detail edit.
func (f *fakeExtensions) appendUpdateAudit(req domain.ExtensionRequest, actor uuid.UUID, field string, oldValue, newValue any) {
	if f.audits == nil {
		return
	}
	body, _ := json.Marshal(map[string]any{"field": field, "old": oldValue, "new": newValue})
	f.audits.entries = append(f.audits.entries, domain.AuditEntry{
		LogID: uuid.New(),
		Type:  domain.AuditTypeExtensionRequests,
		Meta: map[string]string{
			"taskId":             req.TaskID.String(),
			"extensionRequestId": req.RequestID.String(),
			"userId":             req.Assignee.String(),
			"actorId":            actor.String(),
			"action":             "update",
		},
		Body:      body,
		CreatedAt: req.UpdatedAt,
	})
}

type statusKey struct {
	userID uuid.UUID
	state  domain.UserStatusState
}

type fakeStatuses struct {
	slots map[statusKey]domain.UserStatus
}

func (f *fakeStatuses) GetByUserAndState(_ context.Context, userID uuid.UUID, state domain.UserStatusState) (*domain.UserStatus, error) {
	status, ok := f.slots[statusKey{userID, state}]
	if !ok {
		return nil, nil
	}
	copied := status
	return &copied, nil
}

func (f *fakeStatuses) SetCurrent(_ context.Context, status domain.UserStatus, clearUpcoming bool) error {
	status.State = domain.StatusStateCurrent
	f.slots[statusKey{status.UserID, domain.StatusStateCurrent}] = status
	if clearUpcoming {
		delete(f.slots, statusKey{status.UserID, domain.StatusStateUpcoming})
	}
	return nil
}

func (f *fakeStatuses) SetUpcoming(_ context.Context, status domain.UserStatus) error {
	status.State = domain.StatusStateUpcoming
	f.slots[statusKey{status.UserID, domain.StatusStateUpcoming}] = status
	return nil
}

func (f *fakeStatuses) ListDueUpcoming(_ context.Context, now time.Time) ([]domain.UserStatus, error) {
	var out []domain.UserStatus
	for key, status := range f.slots {
		if key.state == domain.StatusStateUpcoming && !status.AppliedOn.After(now) {
			out = append(out, status)
		}
	}
	return out, nil
}

func (f *fakeStatuses) ListExpiredCurrentOOO(_ context.Context, now time.Time) ([]domain.UserStatus, error) {
	var out []domain.UserStatus
	for key, status := range f.slots {
		if key.state == domain.StatusStateCurrent && status.Status == domain.UserStatusOOO &&
			status.EndsOn != nil && status.EndsOn.Before(now) {
			out = append(out, status)
		}
	}
	return out, nil
}

func (f *fakeStatuses) CountByState(_ context.Context, state domain.UserStatusState) (int64, error) {
	var count int64
	for key := range f.slots {
		if key.state == state {
			count++
		}
	}
	return count, nil
}

func (f *fakeStatuses) PromoteUpcoming(_ context.Context, userID uuid.UUID, now time.Time) (*domain.UserStatus, bool, error) {
	upcoming, ok := f.slots[statusKey{userID, domain.StatusStateUpcoming}]
	if !ok || upcoming.AppliedOn.After(now) {
		return nil, false, nil
	}
	upcoming.State = domain.StatusStateCurrent
	upcoming.UpdatedAt = now
	f.slots[statusKey{userID, domain.StatusStateCurrent}] = upcoming
	delete(f.slots, statusKey{userID, domain.StatusStateUpcoming})
	copied := upcoming
	return &copied, true, nil
}

func (f *fakeStatuses) RevertExpiredOOO(_ context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	current, ok := f.slots[statusKey{userID, domain.StatusStateCurrent}]
	if !ok || current.Status != domain.UserStatusOOO || current.EndsOn == nil || !current.EndsOn.Before(now) {
		return false, nil
	}
	current.Status = domain.UserStatusActive
	current.Message = ""
	current.AppliedOn = domain.StartOfUTCDay(now)
	current.EndsOn = nil
	current.UpdatedAt = now
	f.slots[statusKey{userID, domain.StatusStateCurrent}] = current
	return true, nil
}

type fakeAudits struct {
	entries []domain.AuditEntry
	failErr error
}

func (f *fakeAudits) Append(_ context.Context, entry domain.AuditEntry) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudits) ListByMeta(_ context.Context, logType string, meta map[string]string, limit int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, entry := range f.entries {
		if entry.Type != logType {
			continue
		}
		match := true
		for key, value := range meta {
			if entry.Meta[key] != value {
				match = false
				break
			}
		}
		if match {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeOutbox struct {
	events []ports.OutboxEvent
}

func (f *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, _ int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

type fakeDedup struct {
	seen map[string]bool
}

func (f *fakeDedup) IsDuplicate(_ context.Context, eventID string, _ time.Time) (bool, error) {
	return f.seen[eventID], nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, eventID, _ string, _ time.Time) error {
	f.seen[eventID] = true
	return nil
}

type fakeIdempotency struct {
	keys map[string]string
}

func (f *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, _ time.Time) error {
	if _, ok := f.keys[key]; ok {
		return errors.New("already reserved")
	}
	f.keys[key] = requestHash
	return nil
}

type fakeCache struct {
	values map[string]string
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (ports.AuthClaims, error) {
	if token == "" {
		return ports.AuthClaims{}, errors.New("empty token")
	}
	return ports.AuthClaims{UserID: token}, nil
}

type fixture struct {
	svc        *Service
	users      *fakeUsers
	tasks      *fakeTasks
	extensions *fakeExtensions
	statuses   *fakeStatuses
	audits     *fakeAudits
	outbox     *fakeOutbox
	dedup      *fakeDedup
	cache      *fakeCache
	now        time.Time
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		users:    &fakeUsers{byID: map[uuid.UUID]domain.User{}},
		tasks:    &fakeTasks{byID: map[uuid.UUID]domain.Task{}},
		statuses: &fakeStatuses{slots: map[statusKey]domain.UserStatus{}},
		audits:   &fakeAudits{},
		outbox:   &fakeOutbox{},
		dedup:    &fakeDedup{seen: map[string]bool{}},
		cache:    &fakeCache{values: map[string]string{}},
		now:      now,
	}
	f.extensions = &fakeExtensions{tasks: f.tasks, audits: f.audits}
	f.svc = NewService(Dependencies{
		Tasks:       f.tasks,
		Users:       f.users,
		Extensions:  f.extensions,
		Statuses:    f.statuses,
		Audits:      f.audits,
		Outbox:      f.outbox,
		EventDedup:  f.dedup,
		Idempotency: &fakeIdempotency{keys: map[string]string{}},
		Tokens:      fakeVerifier{},
		Cache:       f.cache,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) addUser(username, role string) domain.User {
	user := domain.User{UserID: uuid.New(), Username: username, Role: role, CreatedAt: f.now}
	f.users.byID[user.UserID] = user
	return user
}

func (f *fixture) addTask(assignee uuid.UUID, endsOn int64) domain.Task {
	task := domain.Task{
		TaskID: uuid.New(), Title: "deliverable", Assignee: assignee, Status: "IN_PROGRESS",
		EndsOn: endsOn, CreatedBy: assignee, CreatedAt: f.now, UpdatedAt: f.now,
	}
	f.tasks.byID[task.TaskID] = task
	return task
}

func claimsFor(user domain.User) ports.AuthClaims {
	return ports.AuthClaims{UserID: user.UserID.String(), Username: user.Username, Role: user.Role}
}
