package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for extracting cookies
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 LINKEDIN COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The ad library endpoints need your LinkedIn session cookies.")
	fmt.Println("Follow these steps to extract them from your browser:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open LinkedIn in your browser")
	fmt.Println("   - Go to https://www.linkedin.com")
	fmt.Println("   - Log in with your account")
	fmt.Println("   - Make sure you can see your feed")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Safari: Enable Developer menu in Preferences, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("🍪 STEP 3: Find your cookies")
	fmt.Println("   1. Go to 'Application' tab (Chrome) or 'Storage' tab (Firefox)")
	fmt.Println("   2. In the left sidebar, expand 'Cookies'")
	fmt.Println("   3. Click on 'https://www.linkedin.com'")
	fmt.Println("   4. Look for these cookies in the list:")
	fmt.Println()

	fmt.Println("🔑 STEP 4: Copy these specific values:")
	fmt.Println("   ┌─────────────┬──────────────────────────────────────────────┐")
	fmt.Println("   │ Cookie Name │ What it looks like                           │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ li_at       │ Long token starting with AQED...             │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ JSESSIONID  │ Quoted string starting with ajax:            │")
	fmt.Println("   │             │ Example: \"ajax:1234567890123456789\"          │")
	fmt.Println("   └─────────────┴──────────────────────────────────────────────┘")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Copy the ENTIRE value (everything after the = sign)")
	fmt.Println("   • Don't include the surrounding quotes or semicolons")
	fmt.Println("   • These cookies expire, so you may need to refresh them periodically")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These cookies give FULL access to your LinkedIn account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Application tab → Cookies → www.linkedin.com")
	fmt.Println("   Need: li_at=... and JSESSIONID=\"ajax:...\"")
	fmt.Println("   Type 'help' for detailed instructions")
}
