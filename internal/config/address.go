package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// hostnameRegex accepts DNS names and dotted IPv4 literals.
var hostnameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,62})(\.[A-Za-z0-9]([A-Za-z0-9-]{0,62}))*\.?$`)

var digitsRegex = regexp.MustCompile(`^[0-9]+$`)

// ValidatePort checks that s is all digits and within 1-65535.
func ValidatePort(s string) error {
	if !digitsRegex.MatchString(s) {
		return fmt.Errorf("invalid port %q: must be all digits", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q: must be between 1 and 65535", s)
	}
	return nil
}

// validateHost accepts an IP literal (without brackets) or a hostname.
func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if strings.Contains(host, ":") {
		return fmt.Errorf("invalid IPv6 address %q", host)
	}
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid host %q", host)
	}
	return nil
}

// ValidateListen checks a listen address of the form host:port or [ipv6]:port.
func ValidateListen(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: expected host:port or [ipv6]:port", s)
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(s, "[") {
		return fmt.Errorf("invalid listen address %q: IPv6 hosts must be bracketed", s)
	}
	if err := validateHost(host); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s, err)
	}
	if err := ValidatePort(port); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s, err)
	}
	return nil
}

// ValidateRemoteHost checks the host part of a remote address.
// IPv6 literals may be given with or without brackets.
func ValidateRemoteHost(s string) error {
	host := unbracket(strings.TrimSpace(s))
	if strings.ContainsAny(host, " \t") {
		return fmt.Errorf("invalid remote host %q: must not contain whitespace", s)
	}
	if err := validateHost(host); err != nil {
		return fmt.Errorf("invalid remote host: %w", err)
	}
	return nil
}

// JoinRemote builds a remote address, bracketing IPv6 literals.
func JoinRemote(host, port string) string {
	return net.JoinHostPort(unbracket(strings.TrimSpace(host)), strings.TrimSpace(port))
}

// ListenKey normalizes a listen address for duplicate detection.
func ListenKey(s string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	} else {
		host = strings.ToLower(host)
	}
	return net.JoinHostPort(host, port)
}

func unbracket(s string) string {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return s[1 : len(s)-1]
	}
	return s
}
