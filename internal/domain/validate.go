package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

var (
	emailPattern = regexp.MustCompile("^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$")

	validate = newValidator()
)

const passwordSymbols = "#?!@$%^&*-"

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	// bcrypt rejects secrets longer than 72 bytes.
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	v.RegisterStructValidation(qnaRules, Quiz{})
	return v
}

// StrongPassword requires an ASCII upper and lower case letter, a digit and a symbol.
func StrongPassword(pw string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// qnaRules applies the requirements that depend on the enclosing quiz type.
func qnaRules(sl validator.StructLevel) {
	quiz := sl.Current().Interface().(Quiz)
	if quiz.QuizType != QuizTypeQNA {
		return
	}
	for i, q := range quiz.Questions {
		if q.TimerOption == "" {
			sl.ReportError(q.TimerOption, fmt.Sprintf("questions[%d].timerOption", i), "TimerOption", "required", "")
		}
		for j, opt := range q.Options {
			if opt.IsCorrect == nil {
				sl.ReportError(opt.IsCorrect, fmt.Sprintf("questions[%d].options[%d].isCorrect", i, j), "IsCorrect", "required", "")
			}
		}
	}
}

// CheckQuiz is the fail-fast structural pre-check for a new quiz.
func CheckQuiz(in QuizInput) error {
	if strings.TrimSpace(in.QuizName) == "" || strings.TrimSpace(in.QuizType) == "" {
		return BadRequest("Quiz name and type required")
	}
	return CheckQuestions(ParseQuizType(in.QuizType), in.Questions)
}

// CheckQuestions is the fail-fast structural pre-check shared by create and update.
// It returns the first violated constraint.
func CheckQuestions(quizType QuizType, questions []QuestionInput) error {
	if len(questions) == 0 {
		return BadRequest("Quiz questions are required")
	}
	if len(questions) < MinQuestions || len(questions) > MaxQuestions {
		return BadRequest("Number of questions should be between 1 and 5")
	}
	for _, q := range questions {
		if strings.TrimSpace(q.QuestionName) == "" || q.OptionType == "" {
			return BadRequest("Question name and option type are required")
		}
		if len(q.Options) == 0 {
			return BadRequest("Question options are required")
		}
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			return BadRequest("Minimum 2 and maximum 4 options needed")
		}
		for _, opt := range q.Options {
			if quizType == QuizTypeQNA {
				if !opt.IsCorrect.Set {
					return BadRequest("isCorrect only true or false")
				}
				if strings.TrimSpace(string(q.TimerOption)) == "" {
					return BadRequest("Please enter timer")
				}
			}
			if err := checkOptionContent(OptionType(q.OptionType), opt); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkOptionContent(optionType OptionType, opt OptionInput) error {
	switch optionType {
	case OptionTypeText:
		if opt.Text == "" {
			return BadRequest("Option text cannot be empty")
		}
	case OptionTypeImage:
		if opt.ImageURL == "" {
			return BadRequest("Image URL cannot be empty")
		}
	case OptionTypeTextAndImage:
		if opt.Text == "" || opt.ImageURL == "" {
			return BadRequest("Option text or image URL should be provided")
		}
	}
	return nil
}

// ValidateQuiz runs the schema layer and reports every violation at once.
func ValidateQuiz(quiz Quiz) error {
	err := validate.Struct(quiz)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, quizMessage(fe))
	}
	return ValidationFailed(messages)
}

func quizMessage(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch path {
	case "quizName":
		return "quiz name is required"
	case "quizType":
		if fe.Tag() == "required" {
			return "quiz type is required"
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid enum value for path `%s`", fe.Value(), path)
	case "min":
		return fmt.Sprintf("%s must contain at least %s items", path, fe.Param())
	case "max":
		return fmt.Sprintf("%s must contain at most %s items", path, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", path)
	}
}

// NormalizeName trims and case-folds a display name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var accountMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"min":      "Name must be at least 3 character",
		"max":      "Name should be less than 15 character",
	},
	"email": {
		"required":  "Email is required",
		"emailaddr": "Please Enter a valid email address",
	},
	"password": {
		"required":       "Password is required",
		"min":            "Password must be at least 8 character",
		"bcryptmax":      "Password must be at most 72 characters",
		"strongpassword": "Password must be contains at least one uppercase and one lowercase and one digit and one special character",
	},
}

var accountRules = map[string]string{
	"name":     "required,min=3,max=15",
	"email":    "required,emailaddr",
	"password": "required,min=8,bcryptmax,strongpassword",
}

// ValidateAccount checks normalized account fields. A nil password is skipped,
// which is how profile updates leave the stored hash alone.
func ValidateAccount(name, email string, password *string) error {
	var messages []string
	check := func(field string, value string) {
		err := validate.Var(value, accountRules[field])
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return
		}
		for _, fe := range verrs {
			messages = append(messages, accountMessages[field][fe.Tag()])
		}
	}
	check("name", name)
	check("email", email)
	if password != nil {
		check("password", *password)
	}
	if len(messages) > 0 {
		return ValidationFailed(messages)
	}
	return nil
}
