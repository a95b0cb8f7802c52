package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. A single connection keeps
// the memory database alive and serializes transactions the way sqlite does.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// recordingQueue captures cleanup tasks instead of running them.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []*FileCleanupTask
}

func (q *recordingQueue) Enqueue(task *FileCleanupTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) paths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, t := range q.tasks {
		out = append(out, t.Paths...)
	}
	return out
}

// memoryStorage is a FileStorage kept in a map.
type memoryStorage struct {
	mu      sync.Mutex
	files   map[string]string
	next    int
	failPut error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string]string{}}
}

func (m *memoryStorage) Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if m.failPut != nil {
		return "", m.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	path := fmt.Sprintf("mem/%d_%s", m.next, filename)
	m.files[path] = string(data)
	return path, nil
}

func (m *memoryStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %s", path)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *memoryStorage) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// testApp wires every service against one database.
type testApp struct {
	db            *gorm.DB
	queue         *recordingQueue
	storage       *memoryStorage
	activity      *ActivityService
	notifications *NotificationService
	projects      *ProjectService
	members       *MemberService
	stages        *StageService
	tasks         *TaskService
	attachments   *AttachmentService
	comments      *CommentService
	configs       *ConfigBoardService
	auth          *AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	utils.SetJWTSecret("test-secret-key-for-testing")

	db := newTestDB(t)
	queue := &recordingQueue{}
	storage := newMemoryStorage()
	activity := NewActivityService(db)
	notifications := NewNotificationService(db)
	cfg := config.DefaultConfig()

	return &testApp{
		db:            db,
		queue:         queue,
		storage:       storage,
		activity:      activity,
		notifications: notifications,
		projects:      NewProjectService(db, activity, queue),
		members:       NewMemberService(db, activity, notifications),
		stages:        NewStageService(db, activity, queue),
		tasks:         NewTaskService(db, activity, notifications, queue),
		attachments:   NewAttachmentService(db, storage, activity, queue),
		comments:      NewCommentService(db, activity, notifications),
		configs:       NewConfigBoardService(db, activity),
		auth:          NewAuthService(db, &cfg.JWT, &cfg.LDAP),
	}
}

func (a *testApp) user(t *testing.T, email, fullName, plan string) *models.User {
	t.Helper()
	u := models.User{Email: email, FullName: fullName, Plan: plan, AuthType: models.AuthTypeLocal, IsActive: true}
	if err := a.db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &u
}

func (a *testApp) project(t *testing.T, owner *models.User, name string) *models.Project {
	t.Helper()
	p, err := a.projects.Create(context.Background(), owner.ID, &CreateProjectRequest{Name: name})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func (a *testApp) invite(t *testing.T, owner *models.User, project *models.Project, member *models.User) {
	t.Helper()
	if _, err := a.members.Invite(context.Background(), owner.ID, project.ID, member.Email); err != nil {
		t.Fatalf("invite %s: %v", member.Email, err)
	}
}

func (a *testApp) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := a.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (a *testApp) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	items, err := a.notifications.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return items
}

func (a *testApp) actions(t *testing.T, projectID uint) []string {
	t.Helper()
	var logs []models.ActivityLog
	if err := a.db.Where("project_id = ?", projectID).Order("id ASC").Find(&logs).Error; err != nil {
		t.Fatalf("list activity: %v", err)
	}
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.Action
	}
	return out
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }

func stringsReader(s string) io.Reader { return strings.NewReader(s) }
