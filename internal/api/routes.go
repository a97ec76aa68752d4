package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/parley/internal/conversation"
	"github.com/zulandar/parley/internal/models"
	"github.com/zulandar/parley/internal/roles"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	convs := v1.Group("/conversations")
	convs.POST("", s.handleStart)
	convs.GET("", s.handleList)
	convs.GET("/search", s.handleSearch)
	convs.GET("/stats", s.handleStats)
	convs.GET("/:id", s.handleGet)
	convs.PATCH("/:id", s.handleUpdate)
	convs.DELETE("/:id", s.handleDelete)
	convs.POST("/:id/messages", s.handleAppend)
	convs.GET("/:id/messages", s.handleMessages)
	convs.GET("/:id/history", s.handleHistory)
	convs.POST("/:id/archive", s.handleArchive)
	convs.GET("/:id/summary", s.handleSummary)

	v1.POST("/tools/:name/execute", s.handleExecuteTool)
	v1.GET("/roles", s.handleRoles)
	v1.GET("/roles/:role", s.handleRole)
	v1.GET("/events", s.handleEvents)
}

type pageQuery struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

func (q pageQuery) page() conversation.Page {
	return conversation.Page{Offset: q.Offset, Limit: q.Limit}
}

type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
}

type startRequest struct {
	UserID  string         `json:"user_id" binding:"required"`
	Role    string         `json:"role" binding:"required"`
	Title   *string        `json:"title"`
	Context map[string]any `json:"context"`
}

func (s *server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	conv, err := s.mgr.StartConversation(c.Request.Context(), req.UserID, roles.Role(req.Role), req.Title, req.Context)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

type listQuery struct {
	pageQuery
	UserID string `form:"user_id" binding:"required"`
	Status string `form:"status"`
}

func (s *server) handleList(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	convs, total, err := s.mgr.ListConversations(c.Request.Context(), q.UserID, q.page(), q.Status)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Conversation]{Items: convs, Total: total, Offset: q.Offset})
}

type searchQuery struct {
	pageQuery
	UserID string `form:"user_id" binding:"required"`
	Term   string `form:"q" binding:"required"`
}

func (s *server) handleSearch(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	convs, total, err := s.mgr.SearchConversations(c.Request.Context(), q.UserID, q.Term, q.page())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Conversation]{Items: convs, Total: total, Offset: q.Offset})
}

func (s *server) handleStats(c *gin.Context) {
	stats, err := s.mgr.Statistics(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type conversationResponse struct {
	*models.Conversation
	Messages      []models.ConversationMessage `json:"messages"`
	TotalMessages int64                        `json:"total_messages"`
}

func (s *server) handleGet(c *gin.Context) {
	ctx := c.Request.Context()
	conv, err := s.mgr.GetConversation(ctx, c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	msgs, total, err := s.mgr.ListMessages(ctx, conv.ID, conversation.Page{})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationResponse{Conversation: conv, Messages: msgs, TotalMessages: total})
}

type updateRequest struct {
	UserID  string         `json:"user_id"`
	Title   *string        `json:"title"`
	Status  string         `json:"status"`
	Context map[string]any `json:"context"`
}

func (s *server) handleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	conv, err := s.mgr.UpdateConversation(c.Request.Context(), c.Param("id"), req.UserID, conversation.UpdateOpts{
		Title:   req.Title,
		Status:  req.Status,
		Context: req.Context,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *server) handleDelete(c *gin.Context) {
	if err := s.mgr.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type appendRequest struct {
	UserID   string         `json:"user_id" binding:"required"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Reply    *bool          `json:"reply"` // defaults to true
}

type appendResponse struct {
	Message       *models.ConversationMessage `json:"message"`
	Reply         *models.ConversationMessage `json:"reply,omitempty"`
	LengthWarning bool                        `json:"length_warning"`
}

// handleAppend stores the user message and, unless reply is false, the
// assistant's answer. A failed reply leaves the user message in place.
func (s *server) handleAppend(c *gin.Context) {
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	res, err := s.mgr.AppendUserMessage(ctx, id, req.UserID, req.Content, req.Metadata)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	resp := appendResponse{Message: res.Message, LengthWarning: res.LengthWarning}
	if req.Reply == nil || *req.Reply {
		reply, err := s.mgr.GenerateAssistantReply(ctx, id, req.UserID)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		resp.Reply = reply
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *server) handleMessages(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	msgs, total, err := s.mgr.ListMessages(c.Request.Context(), c.Param("id"), q.page())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.ConversationMessage]{Items: msgs, Total: total, Offset: q.Offset})
}

func (s *server) handleHistory(c *gin.Context) {
	msgs, err := s.mgr.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": c.Param("id"), "messages": msgs})
}

func (s *server) handleArchive(c *gin.Context) {
	conv, err := s.mgr.ArchiveConversation(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *server) handleSummary(c *gin.Context) {
	summary, err := s.mgr.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type toolRequest struct {
	UserID string         `json:"user_id" binding:"required"`
	Role   string         `json:"role" binding:"required"`
	Params map[string]any `json:"params"`
}

func (s *server) handleExecuteTool(c *gin.Context) {
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	name := c.Param("name")
	result, err := s.mgr.ExecuteTool(c.Request.Context(), req.UserID, roles.Role(req.Role), name, req.Params)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": name, "result": result})
}

func (s *server) handleRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": s.mgr.Roles()})
}

func (s *server) handleRole(c *gin.Context) {
	caps, err := s.mgr.RoleCapabilities(roles.Role(c.Param("role")))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, caps)
}
