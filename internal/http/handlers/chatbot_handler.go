package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dining-concierge/internal/http/middleware"
	"github.com/tbourn/go-dining-concierge/internal/services"
)

// PostChatbot godoc
// @ID          postChatbot
// @Summary     Send a message to the dining concierge
// @Description Relays the user's text to the dialog engine and returns the bot's first reply.
// @Description The conversation continues across calls that send the same X-Session-ID.
// @Tags        Chatbot
// @Accept      json
// @Produce     json
// @Param       X-Session-ID  header  string                false "Conversation session id; generated when absent"
// @Param       body          body    handlers.MessageBody  true  "User message"
// @Success     200  {object}  handlers.MessageBody  "Bot reply"
// @Failure     400  {object}  handlers.MessageBody  "Missing body"
// @Failure     500  {object}  handlers.MessageBody  "Processing error"
// @Router      /chatbot [post]
func (h *Handlers) PostChatbot(c *gin.Context) {
	var req MessageBody
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, http.StatusBadRequest, MsgMissingBody)
		return
	}
	sid, _ := middleware.GetSessionID(c)

	text, err := h.Conversation.Converse(c.Request.Context(), sid, req.Message)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		reply(c, http.StatusBadRequest, MsgMissingBody)
		return
	case err != nil:
		middleware.LoggerFrom(c).Error().Err(err).Msg("chatbot turn failed")
		reply(c, http.StatusInternalServerError, MsgProcessingError)
		return
	}
	ok(c, http.StatusOK, MessageBody{Message: text})
}
