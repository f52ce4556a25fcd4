package tui

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
)

// ErrInteractiveDisabled is returned when interactive prompts are disabled via PATCHREBASE_TEST_NO_INTERACTIVE
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (PATCHREBASE_TEST_NO_INTERACTIVE is set)")

func checkInteractiveAllowed() error {
	if os.Getenv("PATCHREBASE_TEST_NO_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

// PromptConfirm asks a yes/no question
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return false, err
	}
	answer := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}
	return answer, nil
}
