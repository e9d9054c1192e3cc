package messagehandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchatgo/internal/chat"
	"roomchatgo/internal/store"
)

type Handler struct {
	svc chat.IChatService
}

func New(svc chat.IChatService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms/:room/messages", h.list)
	r.POST("/rooms/:room/messages", h.create)
	r.GET("/rooms/:room/online", h.online)
}

// @Summary		List room messages
// @Description	Pages the durable store backwards in time. Items come back ascending; pass next_cursor as before_id to fetch the previous page.
// @Tags			Messages
// @Param			room		path		string	true	"Room ID"				default(lobby)
// @Param			limit		query		int		false	"Page size (1-100)"		minimum(1)	maximum(100)	default(20)
// @Param			before_id	query		string	false	"Opaque cursor"
// @Success		200			{object}	MessagesPage
// @Failure		400			{object}	ErrorResponse
// @Failure		500			{object}	ErrorResponse
// @Router			/rooms/{room}/messages [get]
func (h *Handler) list(ginCtx *gin.Context) {
	var q ListMessagesQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	items, next, err := h.svc.ListBefore(ginCtx.Request.Context(), ginCtx.Param("room"), q.Limit, q.BeforeID)
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	if items == nil {
		items = []chat.MessageView{}
	}
	ginCtx.JSON(http.StatusOK, MessagesPage{Items: items, NextCursor: next})
}

// @Summary		Create a message
// @Description	Persists one message in the room and returns it. Does not fan out to connected clients.
// @Tags			Messages
// @Param			room	path	string			true	"Room ID"	default(lobby)
// @Param			body	body	PostMessageBody	true	"Message payload"
// @Success		201	{object}	chat.MessageView
// @Failure		400	{object}	ErrorResponse
// @Failure		500	{object}	ErrorResponse
// @Router			/rooms/{room}/messages [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body PostMessageBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	view, err := h.svc.CreateMessage(ginCtx.Request.Context(), ginCtx.Param("room"), chat.Inbound{
		Username: body.Username,
		Content:  body.Content,
		Avatar:   body.Avatar,
	})
	switch {
	case err == nil:
		ginCtx.JSON(http.StatusCreated, view)
	case errors.Is(err, chat.ErrEmptyContent):
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Detail: "content must not be empty"})
	case errors.Is(err, store.ErrInsertFailed):
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	default:
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "internal error"})
	}
}

// @Summary		List online peers
// @Description	Returns the peer identities currently marked online in the room.
// @Tags			Messages
// @Param			room	path		string	true	"Room ID"	default(lobby)
// @Success		200		{object}	OnlineResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/rooms/{room}/online [get]
func (h *Handler) online(ginCtx *gin.Context) {
	ids, err := h.svc.Online(ginCtx.Request.Context(), ginCtx.Param("room"))
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	ginCtx.JSON(http.StatusOK, OnlineResponse{Online: ids})
}
