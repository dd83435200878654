package api

// ChatForm is the form-encoded body accepted by both chatbot endpoints. Mode
// is optional and falls back to the server's default mode.
type ChatForm struct {
	Message string `schema:"message"`
	Mode    string `schema:"mode"`
}

type ChatbotViewResponse struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	Succeeded bool   `json:"succeeded"`
}

type ChatbotResponse struct {
	Response  string `json:"response"`
	Succeeded bool   `json:"succeeded"`
}
