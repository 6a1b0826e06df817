package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dining-concierge/internal/dialog"
)

// DialogHook godoc
// @ID          dialogHook
// @Summary     Dialog code hook
// @Description Accepts a Lex V2 code-hook event for DiningSuggestionsIntent and returns the next dialog action.
// @Tags        Dialog
// @Accept      json
// @Produce     json
// @Param       body  body      dialog.Event     true  "Code-hook event"
// @Success     200   {object}  dialog.Response  "Dialog action"
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /dialog/hook [post]
func (h *Handlers) DialogHook(c *gin.Context) {
	var ev dialog.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid code-hook event")
		return
	}
	resp, err := h.Dialog.Handle(c.Request.Context(), ev)
	if err != nil {
		if errors.Is(err, dialog.ErrMissingIntent) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDialogFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, resp)
}
