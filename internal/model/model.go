package model

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	BillURL string `json:"billUrl,omitempty"`
}

type ChatError struct {
	Error       string `json:"error"`
	Explanation string `json:"explanation,omitempty"`
}

type QueryRequest struct {
	SQL string `json:"sql" binding:"required"`
}

type PreviewResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type ExecuteResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type SessionRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

type SessionRoleResponse struct {
	AssignedRole Role `json:"assigned_role"`
	ActiveRole   Role `json:"active_role"`
}
