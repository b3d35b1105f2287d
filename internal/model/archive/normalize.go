package archive

import "errors"

// Turn roles understood by the downstream chat API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ErrEmptyHistory reports that normalization produced zero usable turns.
var ErrEmptyHistory = errors.New("chat history contains no usable turns")

// Turn is one normalized conversation step.
type Turn struct {
	Role string
	Text string
}

// Normalize converts chronologically ordered messages into a strictly
// alternating turn sequence. Messages sent by persona map to the model role,
// everything else to the user role. Same-role runs are merged with newlines
// because the chat API rejects consecutive turns from one role, and a leading
// model turn is dropped so a seeded session always opens with the user.
func Normalize(messages []Message, persona string) ([]Turn, error) {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		role := RoleUser
		if msg.SenderName == persona {
			role = RoleModel
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Text += "\n" + msg.Content
			continue
		}
		turns = append(turns, Turn{Role: role, Text: msg.Content})
	}

	if len(turns) > 0 && turns[0].Role == RoleModel {
		turns = turns[1:]
	}
	if len(turns) == 0 {
		return nil, ErrEmptyHistory
	}
	return turns, nil
}
