package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bustanapp/bustan/services"
	"github.com/bustanapp/bustan/utils"
)

// MentorController exposes the AI gardening mentor: a one-shot tip for the
// home screen and a multi-turn chat. Both endpoints always answer with text;
// upstream failures surface as the mentor's fallback phrases.
type MentorController struct {
	mentor *services.Mentor
}

// NewMentorController creates a new controller instance.
func NewMentorController(mentor *services.Mentor) *MentorController {
	return &MentorController{mentor: mentor}
}

// Tip returns a short motivational gardening tip.
func (m *MentorController) Tip(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"tip": m.mentor.Tip(ctx.Request.Context())})
}

// Chat sends one message to the mentor and returns the reply. Conversation
// history is kept server-side per user.
func (m *MentorController) Chat(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Message string `json:"message" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	message := utils.SanitizePlain(strings.TrimSpace(req.Message))
	if message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40071, "message cannot be empty")
		return
	}

	utils.Success(ctx, gin.H{"reply": m.mentor.Chat(ctx.Request.Context(), userID, message)})
}
