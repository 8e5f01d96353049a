package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"adlibscraper/pkg/auth"
	"adlibscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn session cookies",
	Long: `Manage stored LinkedIn session cookies securely.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Browser-exported cookie file
  - Environment variables (backward compatibility)

Never share your session cookies or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store session cookies securely",
	Long: `Store LinkedIn session cookies securely in the system keychain or an
encrypted file.

You will be prompted for:
  - Session name (if not provided; 'default' is used automatically)
  - li_at cookie value
  - JSESSIONID cookie value
  - User Agent (optional, press Enter for default)

To get these values:
1. Log into LinkedIn in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies
4. Find and copy the li_at and JSESSIONID values`,
	Example: `  # Interactive login storing the default session
  adlibscraper auth login

  # Store under a specific name
  adlibscraper auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored session cookies",
	Long: `Remove stored LinkedIn session cookies.

If no name is provided, you will be shown a list of stored sessions
to choose from.`,
	Example: `  # Interactive logout
  adlibscraper auth logout

  # Logout specific session
  adlibscraper auth logout work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored sessions",
	Long:  `List all stored sessions with masked cookie values.`,
	Run:   runAuthList,
}

// verifyCmd represents the auth verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [name]",
	Short: "Check that a stored session looks usable",
	Long: `Check that a stored session carries the cookies the ad library
endpoints require. The li_at cookie must be present and the JSESSIONID
cookie must carry the ajax: prefix for CSRF validation to succeed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runVerify,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(verifyCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager("")
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	// Show extraction guide first
	auth.ShowCookieExtractionGuide()

	fmt.Print("Ready to enter your cookies? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'adlibscraper auth login' when you're ready.")
		return
	}

	fmt.Println()

	// Check if session already exists
	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  Session '%s' already exists. Update cookies? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\n🔐 Enter your cookie values (they will be hidden as you type):")
	fmt.Println()

	// Get li_at with validation
	var liAt string
	for {
		fmt.Printf("li_at cookie value: ")
		liAt, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read li_at cookie", err.Error())
			os.Exit(1)
		}

		if len(liAt) < 20 {
			fmt.Println("\n❌ That doesn't look like a valid li_at cookie.")
			fmt.Println("   It should be a long token, usually starting with AQED.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	// Get JSESSIONID with validation
	var jsessionID string
	for {
		fmt.Printf("\nJSESSIONID cookie value: ")
		jsessionID, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read JSESSIONID cookie", err.Error())
			os.Exit(1)
		}

		if jsessionID != "" && !strings.Contains(jsessionID, "ajax:") {
			fmt.Println("\n❌ That doesn't look like a valid JSESSIONID.")
			fmt.Println("   It should contain the ajax: prefix.")
			fmt.Println("   Example: \"ajax:1234567890123456789\"")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	// Optional: Get user agent
	fmt.Print("\n\n🌐 User Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	// Show what we're about to do
	fmt.Println("\n📋 Summary:")
	fmt.Printf("   Session: %s\n", name)
	fmt.Printf("   li_at: %s...%s (hidden)\n", liAt[:4], liAt[len(liAt)-4:])
	if jsessionID != "" {
		fmt.Printf("   JSESSIONID: %s (hidden)\n", maskTail(jsessionID))
	}
	if userAgent != "" {
		fmt.Printf("   User Agent: %s\n", userAgent)
	}

	session := &auth.Session{
		Name:         name,
		LiAt:         liAt,
		JSessionID:   jsessionID,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	fmt.Println("\n💾 Storing session securely...")
	if err := manager.Store(session); err != nil {
		ui.PrintError("Failed to store session", err.Error())
		os.Exit(1)
	}

	fmt.Println("\n🎉 Session stored successfully!")
	ui.PrintSuccess(fmt.Sprintf("Session saved: %s", name))

	fmt.Println("\n🔒 Security Information:")
	fmt.Println("   Your cookies are encrypted and stored in:")
	if auth.IsKeyringAvailable() {
		fmt.Println("   • System keychain (primary)")
	}
	fmt.Println("   • Encrypted file (backup)")

	fmt.Println("\n📖 Quick Start Guide:")
	fmt.Println("   Scrape any advertiser's public ad library:")
	fmt.Printf("   $ adlibscraper scrape <advertiser>\n")
	fmt.Println("\n   Example:")
	fmt.Printf("   $ adlibscraper scrape \"Acme Corp\"\n")
	fmt.Println("\n   Use a specific session:")
	fmt.Printf("   $ adlibscraper scrape <advertiser> --session %s\n", name)
	fmt.Println("\n⚠️  Never share your session cookies or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager("")
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 0 {
		sessions, err := manager.List()
		if err != nil || len(sessions) == 0 {
			ui.PrintError("No stored sessions found", "")
			return
		}

		if len(sessions) == 1 {
			session := sessions[0]
			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Remove session '%s'? (y/N): ", session.Name)
			input, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return
			}

			if err := manager.Delete(session.Name); err != nil {
				ui.PrintError("Failed to remove session", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Session removed: " + session.Name)
			return
		}

		fmt.Println("Select session to remove:")
		for i, session := range sessions {
			fmt.Printf("  %d. %s\n", i+1, session.Name)
		}
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

		if choice < 1 || choice > len(sessions) {
			return
		}

		session := sessions[choice-1]
		if err := manager.Delete(session.Name); err != nil {
			ui.PrintError("Failed to remove session", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Session removed: " + session.Name)
		return
	}

	name := args[0]
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove session", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Session removed: " + name)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager("")
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	sessions, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list sessions", err.Error())
		os.Exit(1)
	}

	if len(sessions) == 0 {
		ui.PrintInfo("No stored sessions", "Use 'adlibscraper auth login' to add a session")
		return
	}

	ui.PrintHighlight("Stored Sessions")
	fmt.Println()

	for i, session := range sessions {
		sanitized := auth.SanitizeSession(session)
		fmt.Printf("%d. Session: %s\n", i+1, sanitized.Name)
		fmt.Printf("   li_at: %s\n", sanitized.LiAt)
		fmt.Printf("   JSESSIONID: %s\n", sanitized.JSessionID)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runVerify(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager("")
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	var session *auth.Session
	if len(args) > 0 {
		session, err = manager.Retrieve(args[0])
	} else {
		session, err = manager.RetrieveDefault()
	}
	if err != nil {
		ui.PrintError("Session not found", "Use 'adlibscraper auth login' to store one")
		os.Exit(1)
	}

	ui.PrintInfo("Session", session.Name)

	ok := true
	if session.LiAt == "" {
		ui.PrintError("li_at cookie is missing", "")
		ok = false
	} else {
		ui.PrintSuccess("li_at cookie present")
	}

	if session.CSRFToken() == "" {
		ui.PrintWarning("JSESSIONID missing or lacks ajax: prefix", "listing pagination may fail CSRF validation")
	} else {
		ui.PrintSuccess("JSESSIONID carries the ajax: prefix")
	}

	if !ok {
		os.Exit(1)
	}
	ui.PrintSuccess("Session looks usable")
}

// readPassword reads a cookie value from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskTail hides everything but the last 4 characters
func maskTail(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "..." + s[len(s)-4:]
}
