// Package flow drives a quiz session through its stages. Every action a
// caller can take is declared in a single transition table, which is used
// both to validate requests and to dispatch them to the session manager.
package flow

import (
	"context"
	"fmt"
	"strings"

	"ai-examprep-be/pkg/quiz/session"
	"ai-examprep-be/pkg/store"
)

// Action is a caller-visible operation on a quiz session.
type Action string

const (
	ActionGenerateQuestions Action = "generate_questions"
	ActionRevealAnswers     Action = "reveal_answers"
	ActionShowExplanations  Action = "show_explanations"
	ActionAskFollowup       Action = "ask_followup"
	ActionRestart           Action = "restart"
)

// Transition maps one action in one stage to the stage it produces.
type Transition struct {
	From   string
	Action Action
	To     string
}

// transitions is the single source of truth for the session state machine.
// Restart is legal from every stage except the initial one, and follow-up
// questions loop on themselves so a session can hold a conversation.
var transitions = []Transition{
	{From: store.StageInput, Action: ActionGenerateQuestions, To: store.StageQuestions},
	{From: store.StageQuestions, Action: ActionRevealAnswers, To: store.StageAnswers},
	{From: store.StageAnswers, Action: ActionShowExplanations, To: store.StageExplanations},
	{From: store.StageExplanations, Action: ActionAskFollowup, To: store.StageFollowup},
	{From: store.StageFollowup, Action: ActionAskFollowup, To: store.StageFollowup},
	{From: store.StageQuestions, Action: ActionRestart, To: store.StageInput},
	{From: store.StageAnswers, Action: ActionRestart, To: store.StageInput},
	{From: store.StageExplanations, Action: ActionRestart, To: store.StageInput},
	{From: store.StageFollowup, Action: ActionRestart, To: store.StageInput},
}

// TransitionData carries the payload an action needs. Only the fields
// relevant to the requested action are consulted.
type TransitionData struct {
	Questions        []store.Question
	UserAnswers      map[string]string
	Explanations     map[string]string
	FollowupQuestion string
	FollowupAnswer   string
}

// StateError reports an action attempted in a stage that does not permit it.
type StateError struct {
	SessionID string
	Stage     string
	Action    Action
	Allowed   []Action
}

func (e *StateError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		names[i] = string(a)
	}
	return fmt.Sprintf("action %q is not allowed in step '%s', allowed actions: %s",
		e.Action, e.Stage, strings.Join(names, ", "))
}

// Controller validates actions against the transition table and executes
// them through the session manager.
type Controller struct {
	sessions *session.Manager
}

func NewController(sessions *session.Manager) *Controller {
	return &Controller{sessions: sessions}
}

// AllowedActions lists the actions the transition table permits for a stage,
// in table order.
func (c *Controller) AllowedActions(stage string) []Action {
	var actions []Action
	for _, t := range transitions {
		if t.From == stage {
			actions = append(actions, t.Action)
		}
	}
	return actions
}

// Next reports the stage an action leads to from the given stage, and
// whether the transition exists at all.
func (c *Controller) Next(stage string, action Action) (string, bool) {
	for _, t := range transitions {
		if t.From == stage && t.Action == action {
			return t.To, true
		}
	}
	return "", false
}

// Validate returns a StateError if the action is not legal in the stage.
// Callers with expensive work ahead of Execute use it to fail before
// spending anything.
func (c *Controller) Validate(sessionID, stage string, action Action) error {
	if _, ok := c.Next(stage, action); !ok {
		return &StateError{
			SessionID: sessionID,
			Stage:     stage,
			Action:    action,
			Allowed:   c.AllowedActions(stage),
		}
	}
	return nil
}

// Execute runs one action against a session. The session's current stage is
// checked against the transition table before anything is dispatched, so an
// out-of-order request fails with a StateError naming the legal actions.
func (c *Controller) Execute(ctx context.Context, sessionID string, action Action, data TransitionData) (*store.QuizSession, error) {
	s, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(s.ID, s.CurrentStage, action); err != nil {
		return nil, err
	}

	switch action {
	case ActionGenerateQuestions:
		return c.sessions.SetQuestions(ctx, sessionID, data.Questions)
	case ActionRevealAnswers:
		return c.sessions.SetUserAnswers(ctx, sessionID, data.UserAnswers)
	case ActionShowExplanations:
		return c.sessions.ShowExplanations(ctx, sessionID, data.Explanations)
	case ActionAskFollowup:
		return c.sessions.AddFollowup(ctx, sessionID, data.FollowupQuestion, data.FollowupAnswer)
	case ActionRestart:
		return c.sessions.Restart(ctx, sessionID)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
