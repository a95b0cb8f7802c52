package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Cascades run inside the caller's transaction and return the storage paths
// of every attachment row they removed, so the files can be deleted once the
// transaction commits.

// DeleteTaskCascade removes a task with its comments and attachments.
func DeleteTaskCascade(tx *gorm.DB, taskID uint) ([]string, error) {
	return deleteTasks(tx, []uint{taskID})
}

// DeleteStageCascade removes a stage and every task filed under it.
func DeleteStageCascade(tx *gorm.DB, stageID uint) ([]string, error) {
	var taskIDs []uint
	if err := tx.Model(&Task{}).Where("stage_id = ?", stageID).Pluck("id", &taskIDs).Error; err != nil {
		return nil, fmt.Errorf("list stage tasks: %w", err)
	}
	paths, err := deleteTasks(tx, taskIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Delete(&Stage{}, stageID).Error; err != nil {
		return nil, fmt.Errorf("delete stage: %w", err)
	}
	return paths, nil
}

// DeleteProjectCascade removes the project and everything it owns: tasks,
// stages, project attachments, config boards, activity entries and the
// membership rows.
func DeleteProjectCascade(tx *gorm.DB, project *Project) ([]string, error) {
	var taskIDs []uint
	if err := tx.Model(&Task{}).Where("project_id = ?", project.ID).Pluck("id", &taskIDs).Error; err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	paths, err := deleteTasks(tx, taskIDs)
	if err != nil {
		return nil, err
	}

	var projectFiles []string
	if err := tx.Model(&Attachment{}).Where("project_id = ?", project.ID).Pluck("file_path", &projectFiles).Error; err != nil {
		return nil, fmt.Errorf("list project attachments: %w", err)
	}
	paths = append(paths, projectFiles...)

	steps := []struct {
		what  string
		model interface{}
		query string
	}{
		{"attachments", &Attachment{}, "project_id = ?"},
		{"stages", &Stage{}, "project_id = ?"},
		{"config boards", &ConfigBoard{}, "project_id = ?"},
		{"activity", &ActivityLog{}, "project_id = ?"},
	}
	for _, step := range steps {
		if err := tx.Where(step.query, project.ID).Delete(step.model).Error; err != nil {
			return nil, fmt.Errorf("delete project %s: %w", step.what, err)
		}
	}

	if err := tx.Model(project).Association("Members").Clear(); err != nil {
		return nil, fmt.Errorf("clear project members: %w", err)
	}
	if err := tx.Delete(&Project{}, project.ID).Error; err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return paths, nil
}

func deleteTasks(tx *gorm.DB, taskIDs []uint) ([]string, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	var paths []string
	if err := tx.Model(&Attachment{}).Where("task_id IN ?", taskIDs).Pluck("file_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("list task attachments: %w", err)
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&Attachment{}).Error; err != nil {
		return nil, fmt.Errorf("delete task attachments: %w", err)
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&Comment{}).Error; err != nil {
		return nil, fmt.Errorf("delete task comments: %w", err)
	}
	if err := tx.Where("id IN ?", taskIDs).Delete(&Task{}).Error; err != nil {
		return nil, fmt.Errorf("delete tasks: %w", err)
	}
	return paths, nil
}
