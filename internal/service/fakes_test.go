package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/repository"
)

var testCatalog = domain.Catalog{
	Categories: []domain.Category{
		{Name: "Electrical", SubCategories: []string{"Wiring and cabling", "Lighting and switches"}},
		{Name: "Plumbing & Drainage", SubCategories: []string{"Leak repairs", "Drain blockages"}},
	},
	Places:   []string{"Outlet", "Accommodation"},
	Branches: []string{"Galle", "Kotte"},
}

var (
	admin      = domain.User{ID: "u-admin", Name: "Alice Admin", Role: domain.RoleAdmin}
	manager    = domain.User{ID: "u-manager", Name: "Mona Manager", Role: domain.RoleManager}
	staff      = domain.User{ID: "u-staff", Name: "Bob Staff", Role: domain.RoleStaff}
	otherStaff = domain.User{ID: "u-staff2", Name: "Sue Staff", Role: domain.RoleStaff}
	technician = domain.User{ID: "u-tech", Name: "Charlie Tech", Role: domain.RoleTechnician}
)

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[string]domain.Issue
	seq    int
	now    time.Time
}

func newFakeIssueRepo(now time.Time, seed ...domain.Issue) *fakeIssueRepo {
	repo := &fakeIssueRepo{issues: make(map[string]domain.Issue), now: now}
	for _, issue := range seed {
		repo.issues[issue.ID] = issue
	}
	return repo
}

func (r *fakeIssueRepo) List(context.Context) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		out = append(out, issue)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.After(out[b].UpdatedAt) })
	return out, nil
}

func (r *fakeIssueRepo) ListByReporter(ctx context.Context, reporterID string) ([]domain.Issue, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, issue := range all {
		if issue.ReportedBy == reporterID {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &issue, nil
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	issue.ID = fmt.Sprintf("issue-%d", r.seq)
	issue.CreatedAt = r.now
	issue.UpdatedAt = r.now
	r.issues[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) Update(_ context.Context, id string, patch domain.IssuePatch, now time.Time) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	issue = applyPatch(issue, patch, now)
	r.issues[id] = issue
	return &issue, nil
}

func (r *fakeIssueRepo) AppendComment(_ context.Context, id string, comment domain.Comment, now time.Time) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	issue.Comments = append(append([]domain.Comment{}, issue.Comments...), comment)
	issue.UpdatedAt = now
	r.issues[id] = issue
	return &issue, nil
}

func (r *fakeIssueRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.issues, id)
	return nil
}

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]domain.User
	failNext error
	readErr  error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, user := range all {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id, name, avatar string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if name != "" {
		user.Name = name
	}
	if avatar != "" {
		user.Avatar = avatar
	}
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) AdminResetPassword(_ context.Context, id, _ string) error {
	if _, err := r.GetByID(context.Background(), id); err != nil {
		return err
	}
	return nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]repository.Credential
	seq   int
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: make(map[string]repository.Credential)}
}

func (r *fakeCredentialRepo) Create(_ context.Context, cred *repository.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cred.ID = fmt.Sprintf("cred-%d", r.seq)
	r.creds[cred.ID] = *cred
	return nil
}

func (r *fakeCredentialRepo) GetByEmail(_ context.Context, email string) (*repository.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cred := range r.creds {
		if strings.EqualFold(cred.Email, email) {
			return &cred, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCredentialRepo) GetByID(_ context.Context, id string) (*repository.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cred, nil
}

func (r *fakeCredentialRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return repository.ErrNotFound
	}
	cred.PasswordHash = hash
	r.creds[id] = cred
	return nil
}

func (r *fakeCredentialRepo) UpdateMetadata(_ context.Context, id string, metadata repository.CredentialMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return repository.ErrNotFound
	}
	if metadata.FullName != "" {
		cred.Metadata.FullName = metadata.FullName
	}
	if metadata.AvatarURL != "" {
		cred.Metadata.AvatarURL = metadata.AvatarURL
	}
	if metadata.Role != "" {
		cred.Metadata.Role = metadata.Role
	}
	r.creds[id] = cred
	return nil
}

type fakeRecoveryRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.RecoveryToken
	seq    int
}

func newFakeRecoveryRepo() *fakeRecoveryRepo {
	return &fakeRecoveryRepo{tokens: make(map[string]domain.RecoveryToken)}
}

func (r *fakeRecoveryRepo) Create(_ context.Context, token *domain.RecoveryToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("rec-%d", r.seq)
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeRecoveryRepo) GetByToken(_ context.Context, token string) (*domain.RecoveryToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &found, nil
}

func (r *fakeRecoveryRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.ID == id && token.UsedAt == nil {
			now := time.Now()
			token.UsedAt = &now
			r.tokens[key] = token
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (g *fakeGenerator) Generate(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.text, g.err
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// applyPatch mirrors the sparse UPDATE the issue repository issues.
func applyPatch(issue domain.Issue, p domain.IssuePatch, now time.Time) domain.Issue {
	if p.Title != nil {
		issue.Title = *p.Title
	}
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.Status != nil {
		issue.Status = *p.Status
	}
	if p.Priority != nil {
		issue.Priority = *p.Priority
	}
	if p.Category != nil {
		issue.Category = *p.Category
	}
	if p.SubCategory != nil {
		issue.SubCategory = *p.SubCategory
	}
	if p.Place != nil {
		issue.Place = *p.Place
	}
	if p.Location != nil {
		issue.Location = *p.Location
	}
	if p.ClearAssignee {
		issue.AssignedTo = ""
		issue.AssignedToName = ""
	}
	if p.AssignedTo != nil {
		issue.AssignedTo = *p.AssignedTo
	}
	if p.AssignedToName != nil {
		issue.AssignedToName = *p.AssignedToName
	}
	if p.Attachments != nil {
		issue.Attachments = append([]domain.Attachment(nil), (*p.Attachments)...)
	}
	if p.AIAnalysis != nil {
		issue.AIAnalysis = *p.AIAnalysis
	}
	if now.Before(issue.CreatedAt) {
		now = issue.CreatedAt
	}
	issue.UpdatedAt = now
	return issue
}
