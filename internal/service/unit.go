package service

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/kballard/go-shellquote"
)

// UnitData holds everything needed to render the OpenRC init script.
// Paths are as seen by the running system, not the install root.
type UnitData struct {
	Name       string // Service name, used for the pidfile and description
	Command    string // Absolute path of the realm binary
	ConfigFile string // Configuration passed with -c
	LogFile    string // Receives stdout and stderr of the service
}

// Validate checks that the unit can be rendered.
func (d *UnitData) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if d.Command == "" {
		return fmt.Errorf("command is required")
	}
	if d.ConfigFile == "" {
		return fmt.Errorf("config file is required")
	}
	return nil
}

type unitTemplateData struct {
	UnitData
	CommandArgs string
}

var unitTemplate = template.Must(template.New("openrc").Parse(`#!/sbin/openrc-run

name="{{.Name}}"
description="realm relay service"
command="{{.Command}}"
command_args="{{.CommandArgs}}"
command_background=true
pidfile="/run/${RC_SVCNAME}.pid"
{{- if .LogFile}}
output_log="{{.LogFile}}"
error_log="{{.LogFile}}"
{{- end}}

depend() {
	need net
	after firewall
}
`))

// RenderUnit renders the OpenRC init script for the realm binary.
func RenderUnit(data UnitData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", fmt.Errorf("invalid unit: %w", err)
	}

	td := unitTemplateData{
		UnitData:    data,
		CommandArgs: shellquote.Join("-c", data.ConfigFile),
	}

	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, td); err != nil {
		return "", fmt.Errorf("failed to execute unit template: %w", err)
	}
	return buf.String(), nil
}
