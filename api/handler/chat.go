package handler

import (
	"net/http"
	"strings"

	"github.com/fyerfyer/doc-summary-system/api/middleware"
	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChatHandler 处理聊天相关的API请求
type ChatHandler struct {
	chatService *services.ChatService // 聊天服务
	logger      *logrus.Logger        // 日志记录器
}

// NewChatHandler 创建新的聊天处理器
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      middleware.GetLogger(),
	}
}

// CreateChat 创建新的会话
// POST /api/chats
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req model.NewChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid create chat request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user_id is required"))
		return
	}

	convID, err := h.chatService.NewConversation(c.Request.Context(), req.UserID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse(model.NewChatResponse{ConversationID: convID}))
}

// SendMessage 发送消息，附带文件时返回文件摘要
// POST /api/chats/:conversation_id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var uri model.ChatURI
	var req model.ChatMessageRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "conversation id is required"))
		return
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid chat message request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" && req.File == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "message or file is required"))
		return
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	chatReq := services.ChatRequest{
		UserID:         req.UserID,
		ConversationID: uri.ConversationID,
		Message:        req.Message,
		DetailLevel:    level,
	}
	if req.File != nil {
		file, err := req.File.Open()
		if err != nil {
			h.logger.WithError(err).WithField("filename", req.File.Filename).Error("Failed to open uploaded file")
			middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file"))
			return
		}
		defer file.Close()
		chatReq.File = &services.FileInput{Name: req.File.Filename, Reader: file, Size: req.File.Size}
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), chatReq)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ChatMessageResponse{
		Message:        reply.Message,
		RecordID:       reply.RecordID,
		ConversationID: reply.ConversationID,
	}))
}

// GetHistory 获取会话历史，最早的消息在前
// GET /api/chats/:conversation_id
func (h *ChatHandler) GetHistory(c *gin.Context) {
	var uri model.ChatURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "conversation id is required"))
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), uri.ConversationID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.ChatHistoryResponse{
		ConversationID: uri.ConversationID,
		Messages:       make([]model.ChatMessageInfo, len(messages)),
	}
	for i, m := range messages {
		resp.Messages[i] = model.ChatMessageInfo{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}
