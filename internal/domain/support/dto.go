package support

type CreateTicketRequest struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Subject  string         `json:"subject" binding:"required,max=200"`
	Message  string         `json:"message" binding:"required"`
	Category TicketCategory `json:"category" binding:"required,oneof=general billing technical account feature_request"`
	Priority TicketPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

type UpdateTicketStatusRequest struct {
	Status TicketStatus `json:"status" binding:"required,oneof=open in_progress resolved closed"`
}

type SubmitFeedbackRequest struct {
	Name    string       `json:"name" binding:"required"`
	Email   string       `json:"email" binding:"required,email"`
	Type    FeedbackType `json:"type" binding:"required,oneof=bug feature improvement general"`
	Rating  int          `json:"rating" binding:"required,min=1,max=5"`
	Message string       `json:"message" binding:"required"`
}

type UpdateFeedbackStatusRequest struct {
	Status FeedbackStatus `json:"status" binding:"required,oneof=new reviewed planned closed"`
}
