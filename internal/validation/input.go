package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength         = 3
	MaxUsernameLength         = 30
	MinJobTitleLength         = 3
	MaxJobTitleLength         = 200
	MinJobDescriptionLength   = 10
	MaxJobDescriptionLength   = 5000
	MinProposalLength         = 10
	MaxProposalLength         = 2000
	MinDisputeReasonLength    = 10
	MaxDisputeReasonLength    = 2000
	MaxEvidenceLength         = 2000
	MaxPortfolioTitleLength   = 200
	MaxPortfolioDescLength    = 2000
	MaxBioLength              = 1000
	MaxLocationLength         = 100
	MaxSkillLength            = 50
	MaxSkillsCount            = 50
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}
	return nil
}

// ValidateSkills проверяет список навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("навыков должно быть не более %d", MaxSkillsCount)
	}
	for _, skill := range skills {
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
	}
	return nil
}
