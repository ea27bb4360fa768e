package game

import (
	"fmt"
	"strings"

	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
)

type QuizMode string

const (
	ModeToJapanese  QuizMode = "to_japanese"
	ModeToEnglish   QuizMode = "to_english"
	ModeFillInBlank QuizMode = "fill_in_blank"
)

type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeMultipleChoice QuestionType = "multiple_choice"
)

type Question struct {
	VocabularyID string       `json:"vocabularyId"`
	Prompt       string       `json:"question"`
	Mode         QuizMode     `json:"mode"`
	Type         QuestionType `json:"questionType"`
	Options      []string     `json:"options,omitempty"`
	DisplayText  string       `json:"displayText,omitempty"`
	GapIndices   []int        `json:"gapIndices,omitempty"`
	TTSText      string       `json:"ttsText,omitempty"`
}

type CheckResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer"`
}

type QuizStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// EnterAction is what the Enter key does in the current state.
type EnterAction int

const (
	EnterNone EnterAction = iota
	EnterSubmit
	EnterNext
)

// HintFailed is shown when a hint could not be fetched. The hint stays
// available.
const HintFailed = "Could not get hint. Please try again."

type QuizView struct {
	Phase       Phase        `json:"phase"`
	Question    *Question    `json:"question,omitempty"`
	Answer      string       `json:"answer"`
	Gaps        []string     `json:"gaps,omitempty"`
	CanSubmit   bool         `json:"canSubmit"`
	Checking    bool         `json:"checking"`
	Result      *CheckResult `json:"result,omitempty"`
	Stats       QuizStats    `json:"stats"`
	Hint        string       `json:"hint,omitempty"`
	HintUsed    bool         `json:"hintUsed"`
	HintLoading bool         `json:"hintLoading"`
	Error       string       `json:"error,omitempty"`
}

// Quiz runs a session of questions and keeps the running tally.
type Quiz struct {
	m           machine
	question    *Question
	blanks      *FillInBlank
	answer      string
	checking    bool
	result      *CheckResult
	stats       QuizStats
	hint        string
	hintUsed    bool
	hintLoading bool
	err         string
}

var quizEdges = map[Phase][]Phase{
	PhaseLoading:  {PhaseQuestion, PhaseError, PhaseLoading},
	PhaseQuestion: {PhaseResult, PhaseError, PhaseLoading},
	PhaseResult:   {PhaseLoading},
	PhaseError:    {PhaseLoading},
}

func NewQuiz() *Quiz {
	return &Quiz{m: machine{phase: PhaseLoading, edges: quizEdges}}
}

func (q *Quiz) Phase() Phase { return q.m.phase }

// Begin clears the current question and waits for the next one.
func (q *Quiz) Begin() error {
	if err := q.m.to(PhaseLoading); err != nil {
		return err
	}
	q.question = nil
	q.blanks = nil
	q.answer = ""
	q.checking = false
	q.result = nil
	q.hint = ""
	q.hintUsed = false
	q.hintLoading = false
	q.err = ""
	return nil
}

func (q *Quiz) Loaded(question Question) error {
	if q.m.phase != PhaseLoading {
		return fmt.Errorf("%w: question in %s", ErrInvalidTransition, q.m.phase)
	}
	q.question = &question
	if question.Mode == ModeFillInBlank {
		q.blanks = NewFillInBlank(len(question.GapIndices))
	}
	return q.m.to(PhaseQuestion)
}

// Failed moves to the error state with a message for the user.
func (q *Quiz) Failed(err error) error {
	q.checking = false
	q.err = err.Error()
	return q.m.to(PhaseError)
}

func (q *Quiz) SetAnswer(s string) error {
	if q.m.phase != PhaseQuestion || q.checking {
		return ErrNoQuestion
	}
	if q.blanks != nil {
		return fmt.Errorf("%w: fill-in-blank takes gap input", ErrInvalidTransition)
	}
	q.answer = s
	return nil
}

// FillGap feeds raw romaji into gap i and reports whether it is complete.
func (q *Quiz) FillGap(i int, raw string) (bool, error) {
	if q.m.phase != PhaseQuestion || q.checking {
		return false, ErrNoQuestion
	}
	if q.blanks == nil {
		return false, ErrUnknownGap
	}
	return q.blanks.Input(i, raw)
}

// Answer is what will be sent to the checker: the reconstructed word for
// fill-in-blank, the typed text otherwise.
func (q *Quiz) Answer() string {
	if q.question != nil && q.blanks != nil {
		return q.blanks.Reconstruct(q.question.DisplayText, q.question.GapIndices)
	}
	return q.answer
}

func (q *Quiz) CanSubmit() bool {
	if q.m.phase != PhaseQuestion || q.checking {
		return false
	}
	if q.blanks != nil {
		return q.blanks.Complete()
	}
	return strings.TrimSpace(q.answer) != ""
}

// BeginCheck locks the answer for grading and returns it.
func (q *Quiz) BeginCheck() (string, error) {
	if !q.CanSubmit() {
		return "", ErrIncomplete
	}
	q.checking = true
	answer := q.Answer()
	if q.blanks == nil {
		answer = kana.Normalize(answer)
	}
	return answer, nil
}

// Graded records the checker's verdict. Only a correct answer reports a
// score: the cumulative number of correct answers this session.
func (q *Quiz) Graded(res CheckResult) (Outcome, error) {
	if q.m.phase != PhaseQuestion || !q.checking {
		return Outcome{}, ErrNoQuestion
	}
	q.checking = false
	q.stats.Total++
	if res.Correct {
		q.stats.Correct++
	}
	q.result = &res
	if err := q.m.to(PhaseResult); err != nil {
		return Outcome{}, err
	}
	if !res.Correct {
		return Outcome{}, nil
	}
	return Outcome{
		Chime: true,
		Final: &Final{Game: nihongo.GameQuiz, Score: q.stats.Correct},
	}, nil
}

// BeginHint reports whether a hint fetch may start. A question gets at most
// one hint.
func (q *Quiz) BeginHint() bool {
	if q.m.phase != PhaseQuestion || q.hintUsed || q.hintLoading {
		return false
	}
	q.hintLoading = true
	return true
}

func (q *Quiz) HintLoaded(text string, err error) {
	if !q.hintLoading {
		return
	}
	q.hintLoading = false
	if err != nil {
		q.hint = HintFailed
		return
	}
	q.hint = text
	q.hintUsed = true
}

// Enter submits a typed answer in the question state and moves on from a
// result. Multiple choice questions are answered by picking an option.
func (q *Quiz) Enter() EnterAction {
	switch q.m.phase {
	case PhaseQuestion:
		if q.question != nil && q.question.Type == TypeText && q.CanSubmit() {
			return EnterSubmit
		}
	case PhaseResult:
		return EnterNext
	}
	return EnterNone
}

func (q *Quiz) Question() *Question { return q.question }
func (q *Quiz) Stats() QuizStats    { return q.stats }
func (q *Quiz) HintUsed() bool      { return q.hintUsed }

func (q *Quiz) View() QuizView {
	v := QuizView{
		Phase:       q.m.phase,
		Question:    q.question,
		Answer:      q.Answer(),
		CanSubmit:   q.CanSubmit(),
		Checking:    q.checking,
		Result:      q.result,
		Stats:       q.stats,
		Hint:        q.hint,
		HintUsed:    q.hintUsed,
		HintLoading: q.hintLoading,
		Error:       q.err,
	}
	if q.blanks != nil {
		v.Gaps = q.blanks.Slots()
	}
	return v
}
