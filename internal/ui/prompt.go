package ui

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrCancelled はユーザーがプロンプトを中断した場合のエラー
var ErrCancelled = errors.New("cancelled")

// Choice は選択肢。Label を表示し、Value を返す
type Choice struct {
	Label string
	Value string
}

// Prompter は対話入力のアダプタ
// 何を選ぶかの判断は呼び出し側が持ち、ここは入力の取得だけを担う
type Prompter interface {
	ChooseOne(message string, choices []Choice) (string, error)
	ChooseMany(message string, choices []Choice, defaults []string) ([]string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	TextInput(message, defaultValue string, validate func(string) error) (string, error)
	Password(message string) (string, error)
}

// SurveyPrompter は survey による Prompter
type SurveyPrompter struct{}

// NewPrompter は端末用の Prompter を返す
func NewPrompter() *SurveyPrompter {
	return &SurveyPrompter{}
}

// ChooseOne は選択肢から1つを選ばせる
func (p *SurveyPrompter) ChooseOne(message string, choices []Choice) (string, error) {
	labels, values := splitChoices(choices)

	var idx int
	prompt := &survey.Select{
		Message: message,
		Options: labels,
	}
	if err := survey.AskOne(prompt, &idx); err != nil {
		return "", mapErr(err)
	}
	return values[idx], nil
}

// ChooseMany は複数選択させる。defaults は初期選択の Value
func (p *SurveyPrompter) ChooseMany(message string, choices []Choice, defaults []string) ([]string, error) {
	labels, values := splitChoices(choices)

	var defaultLabels []string
	for i, v := range values {
		for _, d := range defaults {
			if v == d {
				defaultLabels = append(defaultLabels, labels[i])
			}
		}
	}

	var indexes []int
	prompt := &survey.MultiSelect{
		Message: message,
		Options: labels,
		Default: defaultLabels,
	}
	if err := survey.AskOne(prompt, &indexes); err != nil {
		return nil, mapErr(err)
	}

	result := make([]string, 0, len(indexes))
	for _, i := range indexes {
		result = append(result, values[i])
	}
	return result, nil
}

// Confirm は確認プロンプトを表示する
func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	var result bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, mapErr(err)
	}
	return result, nil
}

// TextInput はテキスト入力を受け付ける
func (p *SurveyPrompter) TextInput(message, defaultValue string, validate func(string) error) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}

	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &result, opts...); err != nil {
		return "", mapErr(err)
	}
	return result, nil
}

// Password はパスワード入力を受け付ける（入力は非表示）
func (p *SurveyPrompter) Password(message string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
	}
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.Required)); err != nil {
		return "", mapErr(err)
	}
	return result, nil
}

func splitChoices(choices []Choice) (labels, values []string) {
	labels = make([]string, len(choices))
	values = make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label
		values[i] = c.Value
		if labels[i] == "" {
			labels[i] = c.Value
		}
	}
	return labels, values
}

// mapErr は Ctrl-C を ErrCancelled に変換する
func mapErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	return err
}
