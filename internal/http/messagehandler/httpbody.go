package messagehandler

import "roomchatgo/internal/chat"

type PostMessageBody struct {
	Username string  `json:"username" example:"alice"`
	Content  string  `json:"content"  binding:"required" example:"hello"`
	Avatar   *string `json:"avatar"`
} // @name PostMessageRequest

type ListMessagesQuery struct {
	Limit    int    `form:"limit,default=20" binding:"gte=1,lte=100"`
	BeforeID string `form:"before_id"`
} // @name ListMessagesQuery

type MessagesPage struct {
	Items      []chat.MessageView `json:"items"`
	NextCursor *string            `json:"next_cursor"`
} // @name MessagesPage

type OnlineResponse struct {
	Online []string `json:"online"`
} // @name OnlineResponse

type ErrorResponse struct {
	Detail string `json:"detail"`
} // @name ErrorResponse
