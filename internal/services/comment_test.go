package services

import (
	"context"
	"testing"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
)

func TestCommentCreate_MentionsAndAssignee(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	alice := app.user(t, "alice@x.com", "Alice Smith", "")
	bob := app.user(t, "bob@x.com", "Bob Jones", "")
	carol := app.user(t, "carol@x.com", "", "")
	dave := app.user(t, "dave@x.com", "Dave", "")
	project := app.project(t, alice, "Board")
	app.invite(t, alice, project, bob)
	app.invite(t, alice, project, carol)
	app.invite(t, alice, project, dave)

	task, err := app.tasks.Create(ctx, alice.ID, project.ID, &CreateTaskRequest{Title: "Fix login", AssigneeID: uintPtr(dave.ID)})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	before := len(app.notificationsFor(t, dave.ID))

	comment, err := app.comments.Create(ctx, bob.ID, task.ID, &CreateCommentRequest{
		Content: "@Alice and @carol@x.com please look, @Bob too",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if comment.User == nil || comment.User.ID != bob.ID {
		t.Error("author should be attached to the returned comment")
	}

	mention := "Bob Jones mentioned you in a comment on 'Fix login'"
	if notes := app.notificationsFor(t, alice.ID); len(notes) != 1 || notes[0].Content != mention {
		t.Errorf("alice notifications = %+v", notes)
	}
	if notes := app.notificationsFor(t, carol.ID); len(notes) != 2 || notes[0].Content != mention {
		// invite notification plus the mention
		t.Errorf("carol notifications = %+v", notes)
	}
	if notes := app.notificationsFor(t, bob.ID); len(notes) != 1 {
		t.Errorf("the author must not be notified about their own mention, got %+v", notes)
	}

	daveNotes := app.notificationsFor(t, dave.ID)
	if len(daveNotes) != before+1 {
		t.Fatalf("assignee notifications = %d, expected %d", len(daveNotes), before+1)
	}
	if daveNotes[0].Content != "New comment on task 'Fix login' by Bob Jones" {
		t.Errorf("assignee notification = %q", daveNotes[0].Content)
	}

	actions := app.actions(t, project.ID)
	if last := actions[len(actions)-1]; last != "Commented on task 'Fix login'" {
		t.Errorf("activity = %q", last)
	}
}

func TestCommentCreate_AssigneeCommentingIsSilent(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	owner := app.user(t, "owner@x.com", "", "")
	project := app.project(t, owner, "Board")
	task, _ := app.tasks.Create(ctx, owner.ID, project.ID, &CreateTaskRequest{Title: "Mine", AssigneeID: uintPtr(owner.ID)})

	if _, err := app.comments.Create(ctx, owner.ID, task.ID, &CreateCommentRequest{Content: "note to self @owner"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if notes := app.notificationsFor(t, owner.ID); len(notes) != 0 {
		t.Errorf("notifications = %+v, expected none", notes)
	}
}

func TestCommentCreate_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	owner := app.user(t, "owner@x.com", "", "")
	stranger := app.user(t, "stranger@x.com", "", "")
	project := app.project(t, owner, "Board")
	task, _ := app.tasks.Create(ctx, owner.ID, project.ID, &CreateTaskRequest{Title: "t"})

	if _, err := app.comments.Create(ctx, stranger.ID, task.ID, &CreateCommentRequest{Content: "hi"}); !response.IsKind(err, response.KindForbidden) {
		t.Errorf("stranger Create() error = %v", err)
	}
	if _, err := app.comments.Create(ctx, owner.ID, 9999, &CreateCommentRequest{Content: "hi"}); !response.IsKind(err, response.KindNotFound) {
		t.Errorf("missing task error = %v", err)
	}
	if n := app.count(t, &models.Comment{}, ""); n != 0 {
		t.Errorf("comments = %d, expected 0", n)
	}
}

func TestCommentCreate_MissingAuthorStoresNothing(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	owner := app.user(t, "owner@x.com", "", "")
	project := app.project(t, owner, "Board")
	task, _ := app.tasks.Create(ctx, owner.ID, project.ID, &CreateTaskRequest{Title: "t"})

	// the project still names the owner, but the account row is gone
	if err := app.db.Exec("DELETE FROM users WHERE id = ?", owner.ID).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := app.comments.Create(ctx, owner.ID, task.ID, &CreateCommentRequest{Content: "hi"}); !response.IsKind(err, response.KindNotFound) {
		t.Errorf("Create() error = %v, expected not found", err)
	}
	if n := app.count(t, &models.Comment{}, ""); n != 0 {
		t.Errorf("comments = %d, expected 0", n)
	}
}

func TestCommentListAndDelete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	owner := app.user(t, "owner@x.com", "", "")
	bob := app.user(t, "bob@x.com", "", "")
	carol := app.user(t, "carol@x.com", "", "")
	project := app.project(t, owner, "Board")
	app.invite(t, owner, project, bob)
	app.invite(t, owner, project, carol)
	task, _ := app.tasks.Create(ctx, owner.ID, project.ID, &CreateTaskRequest{Title: "t"})

	first, _ := app.comments.Create(ctx, bob.ID, task.ID, &CreateCommentRequest{Content: "first"})
	second, _ := app.comments.Create(ctx, bob.ID, task.ID, &CreateCommentRequest{Content: "second"})

	list, err := app.comments.List(ctx, carol.ID, task.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("List() order = %+v", list)
	}
	if list[0].User == nil || list[0].User.Email != "bob@x.com" {
		t.Error("comment author should be preloaded")
	}

	if err := app.comments.Delete(ctx, carol.ID, first.ID); !response.IsKind(err, response.KindForbidden) {
		t.Errorf("other member Delete() error = %v, expected forbidden", err)
	}
	if err := app.comments.Delete(ctx, bob.ID, first.ID); err != nil {
		t.Errorf("author Delete() error = %v", err)
	}
	if err := app.comments.Delete(ctx, owner.ID, second.ID); err != nil {
		t.Errorf("owner Delete() error = %v", err)
	}
	if err := app.comments.Delete(ctx, owner.ID, second.ID); !response.IsKind(err, response.KindNotFound) {
		t.Errorf("second Delete() error = %v, expected not found", err)
	}

	actions := app.actions(t, project.ID)
	deletes := actions[len(actions)-2:]
	for _, a := range deletes {
		if a != "Deleted comment on task 't'" {
			t.Errorf("activity = %v, expected two comment deletions at the end", deletes)
			break
		}
	}
}
