package dto

// AttemptRequest carries learner SQL for grading
type AttemptRequest struct {
	SQL string `json:"sql" binding:"required" example:"SELECT COUNT(*) FROM employees;"`
}

// StartVerificationRequest optionally narrows a verification run to one part
type StartVerificationRequest struct {
	Part *int `json:"part,omitempty" validate:"omitempty,min=1,max=6" example:"2"`
}

// ChallengeFilterRequest narrows the challenge listing
type ChallengeFilterRequest struct {
	Part       int    `form:"part" validate:"omitempty,min=1,max=99" example:"2"`
	Difficulty string `form:"difficulty" validate:"omitempty,difficulty" example:"Medium"`
	Mode       string `form:"mode" validate:"omitempty,oneof=exact sample columns tag error skip" example:"tag"`
	Query      string `form:"q" validate:"omitempty,max=200" example:"salary"`
	Page       int    `form:"page" validate:"omitempty,min=1" example:"1"`
	Size       int    `form:"size" validate:"omitempty,min=1,max=100" example:"20"`
}
