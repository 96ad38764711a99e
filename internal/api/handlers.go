package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/littup/forge/internal/controller"
)

// pathID는 경로 파라미터를 양의 정수 ID로 읽습니다.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Mode: HealthMode, Env: s.options.Env})
}

func (s *Server) integrations(c *gin.Context) {
	c.JSON(http.StatusOK, controller.Integrations())
}

func (s *Server) roles(c *gin.Context) {
	c.JSON(http.StatusOK, RolesResponse{
		Roles:       controller.Roles(),
		DefaultTeam: controller.DefaultTeamAssignment(),
	})
}

func (s *Server) templates(c *gin.Context) {
	names, err := s.controller.Templates()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (s *Server) sandboxMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.SandboxMetrics())
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.controller.ListProjects(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectSummary(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	project, err := s.controller.CreateProject(c.Request.Context(), req.Name, req.Template, req.TeamName)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateProjectResponse{ID: project.ID, Name: project.Name})
}

func (s *Server) getProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := s.controller.GetProject(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectDetail(project))
}

func (s *Server) updateProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	project, err := s.controller.UpdateProject(c.Request.Context(), id, controller.ProjectChanges{
		Status:   req.Status,
		Summary:  req.Summary,
		TeamName: req.TeamName,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectDetail(project))
}

func (s *Server) deleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.controller.DeleteProject(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (s *Server) listMessages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	messages, err := s.controller.ListMessages(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{Role: m.Role, Content: m.Content, CreatedAt: timestamp(m.CreatedAt)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := s.controller.AddMessage(c.Request.Context(), id, req.Role, req.Content); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (s *Server) sendBrief(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req BriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	messages, err := s.controller.Chat(c.Request.Context(), id, req.Content)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{Role: m.Role, Content: m.Content, CreatedAt: timestamp(m.CreatedAt)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listMemories(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	memories, err := s.controller.ListMemories(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]MemoryResponse, 0, len(memories))
	for _, m := range memories {
		out = append(out, MemoryResponse{Source: m.Source, Content: m.Content, CreatedAt: timestamp(m.CreatedAt)})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) evolve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req EvolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	message, err := s.controller.Evolve(c.Request.Context(), id, req.Feedback)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, EvolveResponse{Message: message})
}

func (s *Server) listSnapshots(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	snapshots, err := s.controller.ListSnapshots(c.Request.Context(), id, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]SnapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, toSnapshotResponse(snap))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) saveSnapshot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SnapshotRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	snap, err := s.controller.SaveSnapshot(c.Request.Context(), id, req.Note)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(*snap))
}

func (s *Server) getSnapshot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshotID, ok := pathID(c, "snapshot_id")
	if !ok {
		return
	}
	snap, files, err := s.controller.GetSnapshot(c.Request.Context(), id, snapshotID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SnapshotDetail{SnapshotResponse: toSnapshotResponse(*snap), Files: files})
}

func (s *Server) restoreSnapshot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshotID, ok := pathID(c, "snapshot_id")
	if !ok {
		return
	}
	snap, err := s.controller.RestoreSnapshot(c.Request.Context(), id, snapshotID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(*snap))
}

func (s *Server) listFiles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	files, err := s.controller.ListFiles(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) readFile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	path := c.Query("path")
	content, err := s.controller.ReadFile(c.Request.Context(), id, path)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, FileResponse{Path: path, Content: content})
}

func (s *Server) writeFile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FileWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if !req.Snapshot {
		if err := s.controller.WriteFile(ctx, id, req.Path, req.Content); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, OKResponse{OK: true})
		return
	}

	snap, err := s.controller.SaveFile(ctx, id, req.Path, req.Content)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(*snap))
}

func (s *Server) run(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	command := req.Command
	if command == "" {
		command = controller.DefaultRunCommand
	}
	result, err := s.controller.RunCommand(c.Request.Context(), id, command)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRunResponse(result))
}

func (s *Server) test(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := s.controller.TestProject(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRunResponse(result))
}
