package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/tally/internal/ledger"
	"github.com/theirongolddev/tally/internal/model"
)

// resetFlags restores every flag to its default so invocations don't leak
// into each other through the package-level flag variables.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"TALLY_DB_PATH", "TALLY_CURRENCY", "TALLY_DEFAULT_DAYS", "TALLY_LOG_LEVEL", "TALLY_LOG_FILE", "TALLY_ENV"} {
		t.Setenv(k, "")
	}
	chdir(t, dir)
	devNullStdin(t)
	return filepath.Join(dir, "tally.db")
}

// chdir switches the working directory for the rest of the test and restores
// it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// devNullStdin points os.Stdin at /dev/null for the rest of the test, the
// way cron and CI run the binary.
func devNullStdin(t *testing.T) {
	t.Helper()
	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	orig := os.Stdin
	os.Stdin = f
	t.Cleanup(func() {
		os.Stdin = orig
		f.Close()
	})
}

var loggedID = regexp.MustCompile(`\(([0-9a-f]{8})\)\.`)

// addedID pulls the short id out of a "Logged ..." line.
func addedID(t *testing.T, out string) string {
	t.Helper()
	m := loggedID.FindStringSubmatch(out)
	require.NotNil(t, m, "no id in %q", out)
	return m[1]
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSessionLifecycle(t *testing.T) {
	db := setupEnv(t)

	out, err := run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome, rohan")

	out, err = run(t, "--db", db, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "rohan")

	_, err = run(t, "--db", db, "logout")
	require.NoError(t, err)

	_, err = run(t, "--db", db, "whoami")
	require.ErrorIs(t, err, ledger.ErrNoCurrentUser)

	_, err = run(t, "--db", db, "login", "-u", "rohan", "-p", "wrong")
	require.ErrorContains(t, err, "invalid username or password")

	out, err = run(t, "--db", db, "login", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as rohan")

	_, err = run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.ErrorContains(t, err, "already exists")
}

func TestSpendingFlow(t *testing.T) {
	db := setupEnv(t)

	_, err := run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "budget", "set", "food", "20")
	require.NoError(t, err)
	require.Contains(t, out, "Food budget set to £20.00")

	out, err = run(t, "--db", db, "spend", "add", "12.5", "food")
	require.NoError(t, err)
	require.Contains(t, out, "Logged £12.50 on Food")
	require.NotContains(t, out, "over budget")

	out, err = run(t, "--db", db, "spend", "add", "10", "FOOD", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Food is now over budget")

	out, err = run(t, "--db", db, "spend", "add", "3", "transport", "--at", "2024-03-01", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Logged £3.00 on Transport")

	out, err = run(t, "--db", db, "spend", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "£12.50")
	require.Contains(t, out, "£10.00")
	require.Contains(t, out, "£25.50")
	require.Contains(t, out, "3 entries")

	out, err = run(t, "--db", db, "spend", "ls", "--category", "transport")
	require.NoError(t, err)
	require.Contains(t, out, "1 entries")
	require.Contains(t, out, "2024-03-01")

	out, err = run(t, "--db", db, "spend", "ls", "--date", "1999-01-01")
	require.NoError(t, err)
	require.Contains(t, out, "No expenditures found")

	out, err = run(t, "--db", db, "budget", "show")
	require.NoError(t, err)
	require.Contains(t, out, "£22.50")
	require.Contains(t, out, "not set")

	_, err = run(t, "--db", db, "spend", "add", "abc", "food", "--yes")
	require.ErrorContains(t, err, "invalid amount")

	_, err = run(t, "--db", db, "spend", "add", "5", "rent", "--yes")
	require.ErrorContains(t, err, "unknown category")

	_, err = run(t, "--db", db, "spend", "rm", "does-not-exist")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMemoryStoreStartsEmpty(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "--memory", "whoami")
	require.ErrorIs(t, err, ledger.ErrNoCurrentUser)

	out, err := run(t, "--memory")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in")
}

func TestIsTerminal_DevNull(t *testing.T) {
	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer f.Close()
	require.False(t, isTerminal(f), "/dev/null is a character device, not a terminal")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	require.False(t, isTerminal(r))
}

func TestNonInteractiveRefusals(t *testing.T) {
	db := setupEnv(t)

	_, err := run(t, "--db", db, "signup", "-u", "rohan")
	require.ErrorIs(t, err, errNotInteractive)
	require.ErrorContains(t, err, "pass --username and --password")

	_, err = run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)

	_, err = run(t, "--db", db, "budget", "set", "food", "20")
	require.NoError(t, err)
	_, err = run(t, "--db", db, "spend", "add", "15", "food")
	require.NoError(t, err)

	// Over budget without --yes: refuse and write nothing.
	_, err = run(t, "--db", db, "spend", "add", "10", "food")
	require.ErrorContains(t, err, "over the Food budget")
	require.ErrorContains(t, err, "re-run with --yes")

	_, err = run(t, "--db", db, "spend", "add", "1", "transport")
	require.ErrorContains(t, err, "re-run with --yes")

	out, err := run(t, "--db", db, "spend", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "1 entries")
	require.Contains(t, out, "£15.00")
	require.NotContains(t, out, "£10.00")

	_, err = run(t, "--db", db, "profile")
	require.ErrorIs(t, err, errNotInteractive)
}

func TestSpendEditAndRemove(t *testing.T) {
	db := setupEnv(t)

	_, err := run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "spend", "add", "12.5", "food", "--yes")
	require.NoError(t, err)
	id := addedID(t, out)

	_, err = run(t, "--db", db, "spend", "edit", id)
	require.ErrorContains(t, err, "nothing to change")

	out, err = run(t, "--db", db, "spend", "edit", id, "--amount", "7", "--category", "transport")
	require.NoError(t, err)
	require.Contains(t, out, "Updated "+id+": £7.00 on Transport")

	out, err = run(t, "--db", db, "spend", "ls", "--category", "transport")
	require.NoError(t, err)
	require.Contains(t, out, "£7.00")
	require.Contains(t, out, "1 entries")
	require.NotContains(t, out, "£12.50")

	_, err = run(t, "--db", db, "spend", "edit", id, "--category", "rent")
	require.ErrorContains(t, err, "unknown category")

	_, err = run(t, "--db", db, "spend", "rm", id)
	require.ErrorContains(t, err, "re-run with --yes")

	out, err = run(t, "--db", db, "spend", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "1 entries")

	out, err = run(t, "--db", db, "spend", "rm", id, "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Deleted "+id)

	out, err = run(t, "--db", db, "spend", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "No expenditures found")

	_, err = run(t, "--db", db, "spend", "rm", id, "--yes")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestProfileUpdate(t *testing.T) {
	db := setupEnv(t)

	_, err := run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "profile", "--username", "rohan2", "--avatar", "https://example.com/me.png")
	require.NoError(t, err)
	require.Contains(t, out, "Profile updated")

	out, err = run(t, "--db", db, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "rohan2")

	_, err = run(t, "--db", db, "profile", "--username", "  ")
	require.ErrorContains(t, err, "username and password cannot be empty")
	_, err = run(t, "--db", db, "profile", "--password", "")
	require.ErrorContains(t, err, "username and password cannot be empty")

	_, err = run(t, "--db", db, "profile", "--password", "hunter2")
	require.NoError(t, err)

	_, err = run(t, "--db", db, "logout")
	require.NoError(t, err)

	_, err = run(t, "--db", db, "login", "-u", "rohan", "-p", "pw")
	require.ErrorContains(t, err, "invalid username or password")

	out, err = run(t, "--db", db, "login", "-u", "rohan2", "-p", "hunter2")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as rohan2")
}

func TestReport(t *testing.T) {
	db := setupEnv(t)

	_, err := run(t, "--db", db, "signup", "-u", "rohan", "-p", "pw")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "report")
	require.NoError(t, err)
	require.Contains(t, out, "SPENDING")
	require.Contains(t, out, "No expenditures in the selected time range")

	for _, args := range [][]string{{"12.5", "food"}, {"7.5", "food"}, {"5", "transport"}} {
		_, err = run(t, "--db", db, "spend", "add", args[0], args[1], "--yes")
		require.NoError(t, err)
	}
	_, err = run(t, "--db", db, "spend", "add", "99", "shopping", "--at", "2001-01-01", "--yes")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "report", "--days", "7")
	require.NoError(t, err)
	require.Contains(t, out, "rohan")
	require.Contains(t, out, "Last 7d")
	require.Contains(t, out, "By category")
	require.Contains(t, out, "£20.00")
	require.Contains(t, out, "£5.00")
	require.Contains(t, out, "Daily")
	require.Contains(t, out, "Recent days")
	require.NotContains(t, out, "£99.00")
}

func testUserWithIDs(ids ...string) model.User {
	u := model.User{ID: "u1"}
	for _, id := range ids {
		u.Expenditures = append(u.Expenditures, model.Expenditure{ID: id, Category: model.Food, Amount: "£1.00"})
	}
	return u
}

func TestResolveExpenditure(t *testing.T) {
	u := testUserWithIDs("0190-aaaa-1111", "0190-bbbb-1111", "0190-cccc-2222")

	e, err := resolveExpenditure(u, "0190-bbbb-1111")
	require.NoError(t, err)
	require.Equal(t, "0190-bbbb-1111", e.ID)

	e, err = resolveExpenditure(u, "2222")
	require.NoError(t, err)
	require.Equal(t, "0190-cccc-2222", e.ID)

	_, err = resolveExpenditure(u, "1111")
	require.ErrorContains(t, err, "ambiguous")

	_, err = resolveExpenditure(u, "9999")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestParseAmount(t *testing.T) {
	stored, d, err := parseAmount("£1,250.5", "$")
	require.NoError(t, err)
	require.Equal(t, "$1250.50", stored)
	require.Equal(t, "1250.5", d.String())

	_, _, err = parseAmount("0", "£")
	require.Error(t, err)
	_, _, err = parseAmount("-4", "£")
	require.Error(t, err)
}
