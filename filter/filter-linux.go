//go:build linux
// +build linux

package filter

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
)

type filterImpl struct {
	comment string
}

// NewFilter creates an iptables-backed Filter. identifier tags every rule
// this instance adds so FinishFiltering can find and remove exactly
// those rules later, even alongside other iptables users on the host.
func NewFilter(identifier string) (Filter, error) {
	if err := isIptablesEnabled(); err != nil {
		return nil, err
	}
	return &filterImpl{comment: identifier}, nil
}

func isIptablesEnabled() error {
	cmd := exec.Command("iptables", "-S")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("iptables is not enabled or available: %v\nOutput: %s", err, string(output))
	}
	return nil
}

// AddPeerFiltering drops outbound ICMP protocol-unreachable replies
// destined to peerAddr, so the kernel's own confusion about protocolID
// never reaches the peer and corrupts the cTCP session's view of the
// path. Checks for an existing identical rule first so repeat dials to
// the same peer don't pile up duplicates.
func (f *filterImpl) AddPeerFiltering(peerAddr string, protocolID uint8) error {
	ruleCheck := fmt.Sprintf("-A OUTPUT -d %s -p icmp -m icmp --icmp-type 3/2 -m comment --comment \"%s\" -j DROP", peerAddr, f.comment)

	cmd := exec.Command("iptables", "-S", "OUTPUT")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to list iptables rules: %v\nOutput: %s", err, string(output))
	}
	if strings.Contains(string(output), ruleCheck) {
		return nil
	}

	cmd = exec.Command("iptables", "-A", "OUTPUT", "-d", peerAddr, "-p", "icmp",
		"-m", "icmp", "--icmp-type", "3/2", "-m", "comment", "--comment", f.comment, "-j", "DROP")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add iptables rule: %v", err)
	}

	log.Printf("ctcp filter: suppressing ICMP protocol-unreachable to %s for protocol %d", peerAddr, protocolID)
	return nil
}

// RemovePeerFiltering undoes AddPeerFiltering for peerAddr.
func (f *filterImpl) RemovePeerFiltering(peerAddr string, protocolID uint8) error {
	cmd := exec.Command("iptables", "-D", "OUTPUT", "-d", peerAddr, "-p", "icmp",
		"-m", "icmp", "--icmp-type", "3/2", "-m", "comment", "--comment", f.comment, "-j", "DROP")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to remove iptables rule: %v", err)
	}
	return nil
}

// FinishFiltering removes every rule this filter instance added,
// identified by its comment tag, regardless of which peer they target.
func (f *filterImpl) FinishFiltering() error {
	cmd := exec.Command("iptables", "-S", "OUTPUT")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to list iptables rules: %v\nOutput: %s", err, string(output))
	}

	var deleteErrors []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, "--comment \""+f.comment+"\"") {
			deleteCmd := strings.Replace(line, "-A", "-D", 1)
			cmd := exec.Command("sh", "-c", "iptables "+deleteCmd)
			if out, err := cmd.CombinedOutput(); err != nil {
				deleteErrors = append(deleteErrors, fmt.Sprintf("%s\nError: %s", deleteCmd, string(out)))
			}
		}
	}

	if len(deleteErrors) > 0 {
		return fmt.Errorf("some rules failed to delete:\n%s", strings.Join(deleteErrors, "\n"))
	}
	return nil
}
