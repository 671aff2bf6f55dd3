package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/vsops/vsbootstrap/internal/k8s"
)

// Render returns the styled summary.
func (s Summary) Render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Verification service deployed"))
	b.WriteString("\n")

	var access strings.Builder
	fmt.Fprintf(&access, "%s%s\n", labelStyle.Render("UI"), urlStyle.Render(s.UIURL))
	fmt.Fprintf(&access, "%s%s", labelStyle.Render("API"), urlStyle.Render(s.APIURL))
	b.WriteString(boxStyle.Render(access.String()))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Configuration"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Domain/IP:  %s\n", s.Domain)
	fmt.Fprintf(&b, "  SSL:        %t\n", s.SSL)
	publicIP := s.PublicIP
	if publicIP == "" {
		publicIP = Unavailable
	}
	fmt.Fprintf(&b, "  Public IP:  %s\n", publicIP)
	if !s.SSL {
		fmt.Fprintf(&b, "  NodePorts:  ui=%s api=%s\n", s.UIPort, s.APIPort)
	}

	b.WriteString(sectionStyle.Render("Pods"))
	b.WriteString("\n")
	if len(s.Pods) == 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(Unavailable))
	}
	for _, g := range s.Pods {
		renderPods(&b, g)
	}

	if len(s.Advisories) > 0 || len(s.Warnings) > 0 {
		b.WriteString(sectionStyle.Render("Warnings"))
		b.WriteString("\n")
		for _, a := range s.Advisories {
			fmt.Fprintf(&b, "  %s %s\n", warningStyle.Render("WARN"), a)
		}
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", warningStyle.Render(warnMark), w)
		}
	}

	b.WriteString(sectionStyle.Render("Troubleshooting"))
	b.WriteString("\n")
	for _, c := range s.Troubleshooting {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(c))
	}
	if s.LogPath != "" {
		fmt.Fprintf(&b, "\n  Log file: %s\n", s.LogPath)
	}
	return b.String()
}

func renderPods(b *strings.Builder, g PodGroup) {
	fmt.Fprintf(b, "  %s\n", g.Namespace)
	if !g.Available {
		fmt.Fprintf(b, "    %s\n", dimStyle.Render(Unavailable))
		return
	}
	if len(g.Pods) == 0 {
		fmt.Fprintf(b, "    %s\n", dimStyle.Render("no pods"))
		return
	}
	for _, p := range g.Pods {
		fmt.Fprintf(b, "    %s %s %s\n", podMark(p), p.Name, dimStyle.Render(fmt.Sprintf("(%s, restarts %d)", p.Phase, p.Restarts)))
	}
}

func podMark(p k8s.PodStatus) string {
	switch {
	case p.Ready:
		return readyStyle.Render(checkMark)
	case p.Phase == "Failed":
		return failedStyle.Render(crossMark)
	default:
		return warningStyle.Render(warnMark)
	}
}

// Print writes the rendered summary to w.
func (s Summary) Print(w io.Writer) error {
	_, err := io.WriteString(w, s.Render())
	return err
}
