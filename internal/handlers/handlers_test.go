package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/middleware"
	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/internal/services"
	"github.com/Yokesh17/Project--Management/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storage, err := services.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	queue := services.NewSyncQueue()
	queue.SetProcessor(services.NewFileCleanupProcessor(storage))

	cfg := config.DefaultConfig()
	activity := services.NewActivityService(db)
	notifications := services.NewNotificationService(db)

	authH := NewAuthHandler(services.NewAuthService(db, &cfg.JWT, &cfg.LDAP))
	projectH := NewProjectHandler(services.NewProjectService(db, activity, queue), activity)
	memberH := NewMemberHandler(services.NewMemberService(db, activity, notifications))
	stageH := NewStageHandler(services.NewStageService(db, activity, queue))
	taskH := NewTaskHandler(services.NewTaskService(db, activity, notifications, queue))
	attachmentH := NewAttachmentHandler(services.NewAttachmentService(db, storage, activity, queue))
	commentH := NewCommentHandler(services.NewCommentService(db, activity, notifications))
	configH := NewConfigBoardHandler(services.NewConfigBoardService(db, activity))
	notificationH := NewNotificationHandler(notifications)

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, queue, "local").CheckHealth)
	api := r.Group("/api")
	api.POST("/auth/signup", authH.Signup)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/refresh", authH.Refresh)
	api.GET("/shared/:token", configH.GetShared)

	p := api.Group("", middleware.AuthRequired())
	p.GET("/auth/me", authH.GetCurrentUser)
	p.GET("/users/api-token", authH.GetAPIToken)
	p.GET("/projects", projectH.List)
	p.POST("/projects", projectH.Create)
	p.GET("/projects/:id", projectH.GetByID)
	p.DELETE("/projects/:id", projectH.Delete)
	p.GET("/projects/:id/activity", projectH.Activity)
	p.POST("/projects/:id/invite", memberH.Invite)
	p.GET("/projects/:id/members", memberH.List)
	p.DELETE("/projects/:id/members/:userId", memberH.Remove)
	p.POST("/projects/:id/stages", stageH.Create)
	p.DELETE("/stages/:id", stageH.Delete)
	p.GET("/projects/:id/tasks", taskH.List)
	p.POST("/projects/:id/tasks", taskH.Create)
	p.GET("/tasks/:id", taskH.Get)
	p.PATCH("/tasks/:id", taskH.Update)
	p.DELETE("/tasks/:id", taskH.Delete)
	p.POST("/tasks/:id/attachments", attachmentH.UploadToTask)
	p.POST("/projects/:id/attachments", attachmentH.UploadToProject)
	p.GET("/attachments/:id/download", attachmentH.Download)
	p.DELETE("/attachments/:id", attachmentH.Delete)
	p.GET("/tasks/:id/comments", commentH.List)
	p.POST("/tasks/:id/comments", commentH.Create)
	p.DELETE("/comments/:id", commentH.Delete)
	p.GET("/projects/:id/configs", configH.List)
	p.POST("/projects/:id/configs", configH.Create)
	p.PUT("/configs/:id", configH.Update)
	p.DELETE("/configs/:id", configH.Delete)
	p.POST("/configs/:id/share", configH.Share)
	p.GET("/notifications", notificationH.List)
	p.GET("/notifications/unread-count", notificationH.UnreadCount)
	p.PUT("/notifications/read-all", notificationH.MarkAllRead)
	p.PUT("/notifications/:id/read", notificationH.MarkRead)

	return &testServer{db: db, router: r}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, apiResponse) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", req.Method, req.URL.Path, err, w.Body.String())
		}
	}
	return w.Code, resp
}

// signup registers a user and returns an access token for them.
func (s *testServer) signup(t *testing.T, email, fullName string) (uint, string) {
	t.Helper()
	code, resp := s.do(t, "POST", "/api/auth/signup", "", gin.H{"email": email, "password": "secret1", "full_name": fullName})
	if code != http.StatusCreated {
		t.Fatalf("signup %s: status %d (%s)", email, code, resp.Message)
	}
	var user models.User
	decode(t, resp, &user)
	token, err := utils.GenerateToken(user.ID, user.Email, 1)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user.ID, token
}

func (s *testServer) createProject(t *testing.T, token, name string) uint {
	t.Helper()
	code, resp := s.do(t, "POST", "/api/projects", token, gin.H{"name": name})
	if code != http.StatusCreated {
		t.Fatalf("create project: status %d (%s)", code, resp.Message)
	}
	var p models.Project
	decode(t, resp, &p)
	return p.ID
}

func decode(t *testing.T, resp apiResponse, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, resp.Data)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"database":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	_, token := s.signup(t, "alice@x.com", "Alice")

	code, resp := s.do(t, "POST", "/api/auth/signup", "", gin.H{"email": "alice@x.com", "password": "secret1"})
	if code != http.StatusBadRequest || resp.Code != 409 {
		t.Errorf("duplicate signup = %d/%d, expected 400/409", code, resp.Code)
	}

	code, _ = s.do(t, "POST", "/api/auth/signup", "", gin.H{"email": "not-an-email", "password": "secret1"})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("invalid signup status = %d, expected 422", code)
	}

	code, resp = s.do(t, "POST", "/api/auth/login", "", gin.H{"email": "alice@x.com", "password": "secret1"})
	if code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", code, resp.Message)
	}
	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	decode(t, resp, &login)
	if login.AccessToken == "" || login.RefreshToken == "" || login.TokenType != "bearer" {
		t.Errorf("login = %+v", login)
	}

	code, _ = s.do(t, "POST", "/api/auth/login", "", gin.H{"email": "alice@x.com", "password": "wrong"})
	if code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, expected 401", code)
	}

	code, resp = s.do(t, "POST", "/api/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	if code != http.StatusOK {
		t.Errorf("refresh status = %d (%s)", code, resp.Message)
	}

	code, resp = s.do(t, "GET", "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me status = %d", code)
	}
	var me map[string]interface{}
	decode(t, resp, &me)
	if me["email"] != "alice@x.com" {
		t.Errorf("me = %v", me)
	}
	if _, leaked := me["password"]; leaked {
		t.Error("password hash must not be serialized")
	}

	if code, _ := s.do(t, "GET", "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous me status = %d, expected 401", code)
	}

	var first, second struct {
		APIToken string `json:"api_token"`
	}
	_, resp = s.do(t, "GET", "/api/users/api-token", token, nil)
	decode(t, resp, &first)
	_, resp = s.do(t, "GET", "/api/users/api-token", token, nil)
	decode(t, resp, &second)
	if first.APIToken == "" || first.APIToken != second.APIToken {
		t.Errorf("api tokens = %q, %q", first.APIToken, second.APIToken)
	}
	if code, _ := s.do(t, "GET", "/api/auth/me", first.APIToken, nil); code != http.StatusOK {
		t.Errorf("api token should authenticate, got %d", code)
	}
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.signup(t, "alice@x.com", "Alice")
	bobID, bob := s.signup(t, "bob@x.com", "Bob")

	projectID := s.createProject(t, alice, "Board")

	code, resp := s.do(t, "POST", "/api/projects", alice, gin.H{"name": "Second"})
	if code != http.StatusForbidden || resp.Code != 4031 {
		t.Errorf("quota status = %d/%d, expected 403/4031", code, resp.Code)
	}
	if !strings.Contains(resp.Message, "limit reached") {
		t.Errorf("quota message = %q", resp.Message)
	}

	if code, _ := s.do(t, "POST", "/api/projects", alice, gin.H{}); code != http.StatusUnprocessableEntity {
		t.Errorf("missing name status = %d, expected 422", code)
	}

	path := fmt.Sprintf("/api/projects/%d", projectID)
	if code, resp := s.do(t, "GET", path, bob, nil); code != http.StatusForbidden || resp.Code != 403 {
		t.Errorf("stranger get = %d/%d", code, resp.Code)
	}
	if code, _ := s.do(t, "GET", "/api/projects/999", alice, nil); code != http.StatusNotFound {
		t.Errorf("missing project status = %d, expected 404", code)
	}
	if code, _ := s.do(t, "GET", "/api/projects/abc", alice, nil); code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, expected 400", code)
	}

	if code, resp := s.do(t, "POST", path+"/invite", alice, gin.H{"email": "bob@x.com"}); code != http.StatusOK {
		t.Fatalf("invite status = %d (%s)", code, resp.Message)
	}
	if code, resp := s.do(t, "POST", path+"/invite", alice, gin.H{"email": "bob@x.com"}); code != http.StatusBadRequest || resp.Code != 409 {
		t.Errorf("second invite = %d/%d, expected 400/409", code, resp.Code)
	}

	code, resp = s.do(t, "GET", "/api/projects", bob, nil)
	var list []models.Project
	decode(t, resp, &list)
	if code != http.StatusOK || len(list) != 1 || list[0].ID != projectID {
		t.Errorf("bob's projects = %+v", list)
	}

	code, resp = s.do(t, "GET", path+"/members", bob, nil)
	var members []models.User
	decode(t, resp, &members)
	if code != http.StatusOK || len(members) != 2 {
		t.Errorf("members = %+v", members)
	}

	if code, _ := s.do(t, "DELETE", path, bob, nil); code != http.StatusForbidden {
		t.Errorf("member delete status = %d, expected 403", code)
	}
	if code, _ := s.do(t, "DELETE", fmt.Sprintf("%s/members/%d", path, bobID), alice, nil); code != http.StatusOK {
		t.Errorf("remove member status = %d", code)
	}

	code, resp = s.do(t, "GET", path+"/activity", alice, nil)
	var logs []models.ActivityLog
	decode(t, resp, &logs)
	if code != http.StatusOK || len(logs) != 3 || logs[0].Action != "Project initialized" {
		t.Errorf("activity = %+v", logs)
	}

	if code, _ := s.do(t, "DELETE", path, alice, nil); code != http.StatusOK {
		t.Errorf("owner delete status = %d", code)
	}
}

func TestTaskEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.signup(t, "alice@x.com", "Alice")
	bobID, bob := s.signup(t, "bob@x.com", "Bob")
	projectID := s.createProject(t, alice, "Board")
	s.do(t, "POST", fmt.Sprintf("/api/projects/%d/invite", projectID), alice, gin.H{"email": "bob@x.com"})

	code, resp := s.do(t, "POST", fmt.Sprintf("/api/projects/%d/stages", projectID), alice, gin.H{"name": "Doing"})
	if code != http.StatusCreated {
		t.Fatalf("create stage status = %d", code)
	}
	var stage models.Stage
	decode(t, resp, &stage)

	code, resp = s.do(t, "POST", fmt.Sprintf("/api/projects/%d/tasks", projectID), alice, gin.H{
		"title": "Ship it", "assignee_id": bobID, "stage_id": stage.ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create task status = %d (%s)", code, resp.Message)
	}
	var task models.Task
	decode(t, resp, &task)
	if task.Status != models.TaskStatusTodo || task.Priority != models.TaskPriorityMedium {
		t.Errorf("task defaults = %s/%s", task.Status, task.Priority)
	}

	if code, _ := s.do(t, "POST", fmt.Sprintf("/api/projects/%d/tasks", projectID), alice, gin.H{"title": "x", "status": "BLOCKED"}); code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status create = %d, expected 422", code)
	}

	taskPath := fmt.Sprintf("/api/tasks/%d", task.ID)
	code, resp = s.do(t, "PATCH", taskPath, bob, gin.H{"status": "DONE"})
	if code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", code, resp.Message)
	}
	decode(t, resp, &task)
	if task.Status != models.TaskStatusDone || task.CompletedAt == nil {
		t.Errorf("updated task = %+v", task)
	}

	code, resp = s.do(t, "GET", fmt.Sprintf("/api/projects/%d/tasks?status=DONE", projectID), bob, nil)
	var tasks []models.Task
	decode(t, resp, &tasks)
	if code != http.StatusOK || len(tasks) != 1 {
		t.Errorf("filtered tasks = %+v", tasks)
	}
	code, resp = s.do(t, "GET", fmt.Sprintf("/api/projects/%d/tasks?status=TODO", projectID), bob, nil)
	decode(t, resp, &tasks)
	if code != http.StatusOK || len(tasks) != 0 {
		t.Errorf("TODO tasks = %+v", tasks)
	}

	code, resp = s.do(t, "POST", taskPath+"/comments", alice, gin.H{"content": "nice @Bob"})
	if code != http.StatusCreated {
		t.Fatalf("comment status = %d (%s)", code, resp.Message)
	}
	var comment models.Comment
	decode(t, resp, &comment)

	code, resp = s.do(t, "GET", "/api/notifications", bob, nil)
	var notes []models.Notification
	decode(t, resp, &notes)
	// invite, assignment, mention, assignee comment
	if code != http.StatusOK || len(notes) != 4 {
		t.Fatalf("bob's notifications = %+v", notes)
	}

	if code, _ := s.do(t, "PUT", fmt.Sprintf("/api/notifications/%d/read", notes[0].ID), alice, nil); code != http.StatusNotFound {
		t.Errorf("marking someone else's notification = %d, expected 404", code)
	}
	if code, _ := s.do(t, "PUT", fmt.Sprintf("/api/notifications/%d/read", notes[0].ID), bob, nil); code != http.StatusOK {
		t.Errorf("mark read status = %d", code)
	}
	_, resp = s.do(t, "GET", "/api/notifications/unread-count", bob, nil)
	var unread struct {
		Count int64 `json:"count"`
	}
	decode(t, resp, &unread)
	if unread.Count != 3 {
		t.Errorf("unread = %d, expected 3", unread.Count)
	}
	if code, _ := s.do(t, "PUT", "/api/notifications/read-all", bob, nil); code != http.StatusOK {
		t.Errorf("read-all status = %d", code)
	}

	code, resp = s.do(t, "GET", taskPath, alice, nil)
	decode(t, resp, &task)
	if code != http.StatusOK || len(task.Comments) != 1 || task.Comments[0].UserID != aliceID {
		t.Errorf("task detail = %+v", task)
	}

	if code, _ := s.do(t, "DELETE", fmt.Sprintf("/api/comments/%d", comment.ID), bob, nil); code != http.StatusForbidden {
		t.Errorf("non-author comment delete = %d, expected 403", code)
	}
	if code, _ := s.do(t, "DELETE", taskPath, bob, nil); code != http.StatusOK {
		t.Errorf("member task delete = %d", code)
	}
	if code, _ := s.do(t, "GET", taskPath, alice, nil); code != http.StatusNotFound {
		t.Errorf("deleted task get = %d, expected 404", code)
	}
	if code, _ := s.do(t, "DELETE", fmt.Sprintf("/api/stages/%d", stage.ID), bob, nil); code != http.StatusForbidden {
		t.Errorf("member stage delete = %d, expected 403", code)
	}
}

func TestAttachmentEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.signup(t, "alice@x.com", "Alice")
	_, bob := s.signup(t, "bob@x.com", "Bob")
	projectID := s.createProject(t, alice, "Board")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("hello attachment"))
	mw.Close()

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/projects/%d/attachments", projectID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, resp := s.send(t, req, alice)
	if code != http.StatusCreated {
		t.Fatalf("upload status = %d (%s)", code, resp.Message)
	}
	var attachment models.Attachment
	decode(t, resp, &attachment)
	if attachment.Filename != "notes.txt" || attachment.Size != int64(len("hello attachment")) {
		t.Errorf("attachment = %+v", attachment)
	}

	req = httptest.NewRequest("POST", fmt.Sprintf("/api/projects/%d/attachments", projectID), strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if code, _ := s.send(t, req, alice); code != http.StatusUnprocessableEntity {
		t.Errorf("upload without file = %d, expected 422", code)
	}

	w := httptest.NewRecorder()
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/attachments/%d/download", attachment.ID), nil)
	req.Header.Set("Authorization", "Bearer "+alice)
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "hello attachment" {
		t.Errorf("download = %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "notes.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	if code, _ := s.do(t, "GET", fmt.Sprintf("/api/attachments/%d/download", attachment.ID), bob, nil); code != http.StatusForbidden {
		t.Errorf("stranger download = %d, expected 403", code)
	}
	if code, _ := s.do(t, "DELETE", fmt.Sprintf("/api/attachments/%d", attachment.ID), alice, nil); code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
}

func TestConfigBoardEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.signup(t, "alice@x.com", "Alice")
	projectID := s.createProject(t, alice, "Board")

	code, resp := s.do(t, "POST", fmt.Sprintf("/api/projects/%d/configs", projectID), alice, gin.H{"name": "env", "content": `{"debug":true}`})
	if code != http.StatusCreated {
		t.Fatalf("create config status = %d (%s)", code, resp.Message)
	}
	var board models.ConfigBoard
	decode(t, resp, &board)

	code, resp = s.do(t, "POST", fmt.Sprintf("/api/configs/%d/share", board.ID), alice, nil)
	if code != http.StatusOK {
		t.Fatalf("share status = %d", code)
	}
	var share services.ShareResult
	decode(t, resp, &share)
	if share.ShareURL != "/shared/"+share.ShareToken {
		t.Errorf("share = %+v", share)
	}

	code, resp = s.do(t, "GET", "/api/shared/"+share.ShareToken, "", nil)
	if code != http.StatusOK {
		t.Fatalf("shared status = %d", code)
	}
	decode(t, resp, &board)
	if board.Content != `{"debug":true}` || !board.IsPublic {
		t.Errorf("shared board = %+v", board)
	}

	if code, _ := s.do(t, "PUT", fmt.Sprintf("/api/configs/%d", board.ID), alice, gin.H{"is_public": false}); code != http.StatusOK {
		t.Fatalf("update status = %d", code)
	}
	if code, _ := s.do(t, "GET", "/api/shared/"+share.ShareToken, "", nil); code != http.StatusNotFound {
		t.Errorf("private board via token = %d, expected 404", code)
	}
}
