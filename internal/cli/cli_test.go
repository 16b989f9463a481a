package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	configFile string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupSuite() {
	pterm.DisableOutput()
}

func (s *CLITestSuite) TearDownSuite() {
	pterm.EnableOutput()
}

func (s *CLITestSuite) SetupTest() {
	dir := s.T().TempDir()
	s.configFile = filepath.Join(dir, "pettycash.yaml")

	config := "server:\n" +
		"  environment: testing\n" +
		"database:\n" +
		"  driver: sqlite\n" +
		"  path: " + filepath.Join(dir, "ledger.db") + "\n" +
		"security:\n" +
		"  bcrypt_cost: 4\n"
	s.Require().NoError(os.WriteFile(s.configFile, []byte(config), 0o600))
}

func (s *CLITestSuite) run(args ...string) error {
	root, closeApp := NewRootCmd()
	defer closeApp()

	root.SetArgs(append([]string{"--config", s.configFile}, args...))
	return root.Execute()
}

func (s *CLITestSuite) TestUserAddThenTokenIssue() {
	s.Require().NoError(s.run("user", "add", "--username", "lin", "--name", "Lin", "--password", "Sup3r-Secret!", "--role", "approver"))
	s.NoError(s.run("token", "issue", "--username", "lin"))
}

func (s *CLITestSuite) TestUserAddRejectsUnknownRole() {
	err := s.run("user", "add", "--username", "lin", "--password", "Sup3r-Secret!", "--role", "owner")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid role")
}

func (s *CLITestSuite) TestUserAddRequiresUsername() {
	err := s.run("user", "add", "--password", "Sup3r-Secret!")
	s.Require().Error(err)
	s.Contains(err.Error(), "--username is required")
}

func (s *CLITestSuite) TestBalance() {
	s.NoError(s.run("balance"))
	s.NoError(s.run("balance", "--as-of", "2025-05-31"))

	err := s.run("balance", "--as-of", "31/05/2025")
	s.Require().Error(err)
	s.Contains(err.Error(), "YYYY-MM-DD")
}

func (s *CLITestSuite) TestSettle() {
	s.Require().NoError(s.run("user", "add", "--username", "lin", "--password", "Sup3r-Secret!", "--role", "approver"))
	s.Require().NoError(s.run("user", "add", "--username", "mei", "--password", "Sup3r-Secret!"))

	s.NoError(s.run("settle", "--year", "2025", "--month", "5", "--as", "lin", "--yes"))

	err := s.run("settle", "--year", "2025", "--month", "5", "--as", "lin", "--yes")
	s.Require().Error(err)
	s.Contains(err.Error(), "already exists")

	err = s.run("settle", "--year", "2025", "--month", "6", "--as", "mei", "--yes")
	s.Require().Error(err)
	s.Contains(err.Error(), "not permitted")
}

func (s *CLITestSuite) TestSettleGuards() {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing period", []string{"settle", "--as", "lin", "--yes"}, "--year and --month are required"},
		{"missing actor", []string{"settle", "--year", "2025", "--month", "5", "--yes"}, "--as is required"},
		{"unknown actor", []string{"settle", "--year", "2025", "--month", "5", "--as", "ghost", "--yes"}, `cannot act as "ghost"`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.run(tt.args...)
			s.Require().Error(err)
			s.Contains(err.Error(), tt.want)
		})
	}
}

func (s *CLITestSuite) TestCashCount() {
	s.NoError(s.run("cashcount", "list"))

	err := s.run("cashcount", "delete", "not-a-uuid", "--as", "lin", "--yes")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid cash count ID")
}

func (s *CLITestSuite) TestMigrateStatus() {
	s.NoError(s.run("migrate", "up"))
	s.NoError(s.run("migrate", "status"))
}

func (s *CLITestSuite) TestSeed() {
	s.Require().NoError(s.run("user", "add", "--username", "lin", "--password", "Sup3r-Secret!", "--role", "approver"))

	s.NoError(s.run("seed", "--as", "lin", "--from", "2025-01", "--months", "2", "--per-month", "3", "--seed", "7"))
	s.NoError(s.run("balance"))

	err := s.run("seed", "--as", "lin", "--from", "January")
	s.Require().Error(err)
	s.Contains(err.Error(), "expected YYYY-MM")
}

func (s *CLITestSuite) TestReport() {
	s.Require().NoError(s.run("user", "add", "--username", "lin", "--password", "Sup3r-Secret!", "--role", "approver"))
	s.Require().NoError(s.run("seed", "--as", "lin", "--from", "2025-01", "--months", "1", "--per-month", "4", "--seed", "3"))

	s.NoError(s.run("report", "--year", "2025", "--month", "1", "--as", "lin"))

	output := filepath.Join(s.T().TempDir(), "report.xlsx")
	s.Require().NoError(s.run("report", "--year", "2025", "--month", "1", "--as", "lin", "-o", output))

	info, err := os.Stat(output)
	s.Require().NoError(err)
	s.Positive(info.Size())
}

func (s *CLITestSuite) TestTokenRevokeAndPrune() {
	err := s.run("token", "revoke")
	s.Require().Error(err)
	s.Contains(err.Error(), "--token is required")

	s.NoError(s.run("token", "revoke", "--token", "not.a.token"))
	s.NoError(s.run("token", "prune"))
}

func (s *CLITestSuite) TestInvoices() {
	s.NoError(s.run("invoices", "--year", "2025", "--month", "3"))

	output := filepath.Join(s.T().TempDir(), "invoices.xlsx")
	s.Require().NoError(s.run("invoices", "--year", "2025", "--month", "3", "-o", output))

	info, err := os.Stat(output)
	s.Require().NoError(err)
	s.Positive(info.Size())

	err = s.run("invoices", "--year", "2025", "--month", "13")
	s.Require().Error(err)
}
