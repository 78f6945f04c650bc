package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	TotalErrors         int
	OrdersPlaced        int
	CheckoutReplays     int
	PaymentsVerified    int
	PaymentFailures     int
	SignatureMismatches int
	OrdersCancelled     int
	ItemsCancelled      int
	ReturnsRequested    int
	ReturnsProcessed    int
	WalletCredits       int
	WalletDebits        int
	RateLimited         int
	RejectedTokens      int
	UserActivities      map[string]int
	ErrorPatterns       map[string]int
}

var (
	// "ERROR: 2025/01/02 15:04:05 file.go:42: message"
	messageRegex = regexp.MustCompile(`^\w+: \d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} [\w.]+:\d+: (.*)$`)
	userRegex    = regexp.MustCompile(`(?:by|for) user (\d+)`)
	numberRegex  = regexp.MustCompile(`\d+(\.\d+)?`)
)

func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "day of the log files to read")
	logDir := flag.String("dir", "./logs", "log directory")
	flag.Parse()

	stats := &LogStats{
		UserActivities: make(map[string]int),
		ErrorPatterns:  make(map[string]int),
	}

	scanFile(filepath.Join(*logDir, fmt.Sprintf("error-%s.log", *date)), stats, analyzeErrorLine)
	scanFile(filepath.Join(*logDir, fmt.Sprintf("info-%s.log", *date)), stats, analyzeInfoLine)

	printReport(*date, stats)
}

func scanFile(logFile string, stats *LogStats, analyze func(string, *LogStats)) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		analyze(message(scanner.Text()), stats)
	}
}

// message drops the logger prefix, leaving what the service wrote
func message(line string) string {
	if m := messageRegex.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return line
}

func analyzeErrorLine(msg string, stats *LogStats) {
	if msg == "" {
		return
	}
	stats.TotalErrors++

	switch {
	case strings.HasPrefix(msg, "Payment signature mismatch"):
		stats.SignatureMismatches++
	case strings.HasPrefix(msg, "Rate limit exceeded"):
		stats.RateLimited++
	case strings.HasPrefix(msg, "Invalid token"), strings.HasPrefix(msg, "Revoked token"):
		stats.RejectedTokens++
	}
	stats.ErrorPatterns[errorPattern(msg)]++
}

func analyzeInfoLine(msg string, stats *LogStats) {
	switch {
	case strings.HasPrefix(msg, "Order ") && strings.Contains(msg, " placed by user "):
		stats.OrdersPlaced++
		extractUserActivity(msg, stats)
	case strings.HasPrefix(msg, "Returning existing order"):
		stats.CheckoutReplays++
	case strings.HasPrefix(msg, "Payment ") && strings.Contains(msg, " verified for order "):
		stats.PaymentsVerified++
	case strings.HasPrefix(msg, "Payment failure recorded"):
		stats.PaymentFailures++
	case strings.HasPrefix(msg, "Order ") && strings.Contains(msg, " cancelled by user "):
		stats.OrdersCancelled++
		extractUserActivity(msg, stats)
	case strings.HasPrefix(msg, "Item ") && strings.Contains(msg, " cancelled by user "):
		stats.ItemsCancelled++
		extractUserActivity(msg, stats)
	case strings.HasPrefix(msg, "Return requested"):
		stats.ReturnsRequested++
		extractUserActivity(msg, stats)
	case strings.Contains(msg, " processed return "):
		stats.ReturnsProcessed++
	case strings.HasPrefix(msg, "Wallet credit"):
		stats.WalletCredits++
	case strings.HasPrefix(msg, "Wallet debit"):
		stats.WalletDebits++
	}
}

func extractUserActivity(msg string, stats *LogStats) {
	if m := userRegex.FindStringSubmatch(msg); m != nil {
		stats.UserActivities["user "+m[1]]++
	}
}

// errorPattern groups messages that differ only in ids and amounts
func errorPattern(msg string) string {
	if i := strings.Index(msg, ": "); i > 0 {
		msg = msg[:i]
	}
	return numberRegex.ReplaceAllString(msg, "N")
}

func printReport(date string, stats *LogStats) {
	fmt.Println("\n=== Log Analysis Report ===")
	fmt.Println("Log date:", date)
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Println("\n1. Checkout:")
	fmt.Printf("   Orders Placed: %d\n", stats.OrdersPlaced)
	fmt.Printf("   Repeated Checkouts: %d\n", stats.CheckoutReplays)

	fmt.Println("\n2. Payments:")
	fmt.Printf("   Verified: %d\n", stats.PaymentsVerified)
	fmt.Printf("   Reported Failures: %d\n", stats.PaymentFailures)
	fmt.Printf("   Signature Mismatches: %d\n", stats.SignatureMismatches)

	fmt.Println("\n3. Cancellations and Returns:")
	fmt.Printf("   Orders Cancelled: %d\n", stats.OrdersCancelled)
	fmt.Printf("   Items Cancelled: %d\n", stats.ItemsCancelled)
	fmt.Printf("   Returns Requested: %d\n", stats.ReturnsRequested)
	fmt.Printf("   Returns Processed: %d\n", stats.ReturnsProcessed)

	fmt.Println("\n4. Wallet:")
	fmt.Printf("   Credits: %d\n", stats.WalletCredits)
	fmt.Printf("   Debits: %d\n", stats.WalletDebits)

	fmt.Println("\n5. Access:")
	fmt.Printf("   Rate Limited Requests: %d\n", stats.RateLimited)
	fmt.Printf("   Rejected Tokens: %d\n", stats.RejectedTokens)

	fmt.Println("\n6. Error Statistics:")
	fmt.Printf("   Total Errors: %d\n", stats.TotalErrors)

	fmt.Println("\n7. Most Active Users:")
	printTop(stats.UserActivities, 5, "activities")

	fmt.Println("\n8. Most Common Errors:")
	printTop(stats.ErrorPatterns, 5, "occurrences")
}

func printTop(counts map[string]int, limit int, unit string) {
	type entry struct {
		key   string
		count int
	}

	var entries []entry
	for key, count := range counts {
		entries = append(entries, entry{key, count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d %s\n", e.key, e.count, unit)
	}
}
