package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type PasswordServiceTestSuite struct {
	suite.Suite
	service *PasswordService
}

func (s *PasswordServiceTestSuite) SetupTest() {
	s.service = NewPasswordService(bcrypt.MinCost)
}

func TestPasswordServiceSuite(t *testing.T) {
	suite.Run(t, new(PasswordServiceTestSuite))
}

func (s *PasswordServiceTestSuite) TestValidatePassword() {
	testCases := []struct {
		name     string
		password string
		expected error
	}{
		{"valid", "SecurePass123!@#", nil},
		{"minimum valid", "Abcdefghij1!", nil},
		{"with spaces", "Secure Pass 123!", nil},
		{"empty", "", ErrPasswordEmpty},
		{"too short", "Short1!", ErrPasswordTooShort},
		{"too long", "Aa1!" + strings.Repeat("x", 70), ErrPasswordTooLong},
		{"no uppercase", "securepass123!@#", ErrPasswordNoUppercase},
		{"no lowercase", "SECUREPASS123!@#", ErrPasswordNoLowercase},
		{"no number", "SecurePassword!@#", ErrPasswordNoNumber},
		{"no special", "SecurePassword123", ErrPasswordNoSpecial},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := s.service.ValidatePassword(tc.password)
			if tc.expected == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tc.expected)
		})
	}
}

func (s *PasswordServiceTestSuite) TestHashAndCompare() {
	hash, err := s.service.HashPassword("SecurePass123!@#")
	s.Require().NoError(err)
	s.NotEqual("SecurePass123!@#", hash)
	s.True(strings.HasPrefix(hash, "$2a$"))

	s.True(s.service.ComparePassword("SecurePass123!@#", hash))
	s.False(s.service.ComparePassword("SecurePass123!@", hash))
	s.False(s.service.ComparePassword("", hash))
}

func (s *PasswordServiceTestSuite) TestHashPassword_RejectsWeakPassword() {
	hash, err := s.service.HashPassword("weak")
	s.ErrorIs(err, ErrPasswordTooShort)
	s.Empty(hash)
}

func (s *PasswordServiceTestSuite) TestCostFallback() {
	s.Equal(DefaultBCryptCost, NewPasswordService(0).cost)
	s.Equal(DefaultBCryptCost, NewPasswordService(bcrypt.MaxCost+1).cost)
	s.Equal(bcrypt.MinCost, s.service.cost)
}
