package api

import (
	"errors"
	"net/http"

	"github.com/darmiel/toki/internal/api/presenter"
	"github.com/darmiel/toki/internal/tasks"
)

// handleListTasks responds with the list of tasks and their statuses.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.tasks.ListStatus(), http.StatusOK)
}

type TriggerTaskResponse struct {
	Status string `json:"status"`
}

// handleTriggerTask starts a run of a task in the background.
func (s *Server) handleTriggerTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Trigger(r.PathValue("name")); err != nil {
		presenter.Error(w, r, err.Error(), taskStatus(err))
		return
	}
	presenter.JSON(w, r, TriggerTaskResponse{
		Status: "triggered",
	}, http.StatusAccepted)
}

// handleLogsForTask retrieves the logs of the latest run of a task.
func (s *Server) handleLogsForTask(w http.ResponseWriter, r *http.Request) {
	logs, err := s.tasks.GetLogs(r.PathValue("name"))
	if err != nil {
		presenter.Error(w, r, err.Error(), taskStatus(err))
		return
	}
	presenter.JSON(w, r, logs, http.StatusOK)
}

func taskStatus(err error) int {
	var notFound tasks.TaskNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
