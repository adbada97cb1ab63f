package varserver

import (
	"fmt"
	"strconv"
	"time"
)

// Protocol defaults for the Trick variable server
const (
	DefaultClientTag = "AircraftDisplay"
	DefaultVarPath   = "dyn.aircraft"
	DefaultCycle     = 100 * time.Millisecond
	commandPrefix    = "trick."
)

// Subscribed variables, in the order the server reports them
var subscribedVars = []string{
	"pos[0]",
	"pos[1]",
	"vel[0]",
	"vel[1]",
	"desired_speed",
	"desired_heading",
}

// HandshakeLines returns the initialization block sent once after connect.
// Lines are not newline terminated.
func HandshakeLines(clientTag, varPath string, cycle time.Duration) []string {
	if clientTag == "" {
		clientTag = DefaultClientTag
	}
	if varPath == "" {
		varPath = DefaultVarPath
	}
	if cycle <= 0 {
		cycle = DefaultCycle
	}

	lines := []string{
		fmt.Sprintf("%svar_set_client_tag(%q)", commandPrefix, clientTag),
		commandPrefix + "var_pause()",
	}
	for _, v := range subscribedVars {
		lines = append(lines, fmt.Sprintf("%svar_add(%q)", commandPrefix, varPath+"."+v))
	}
	lines = append(lines,
		commandPrefix+"var_ascii()",
		fmt.Sprintf("%svar_cycle(%s)", commandPrefix, strconv.FormatFloat(cycle.Seconds(), 'f', -1, 64)),
		commandPrefix+"var_unpause()",
	)
	return lines
}

// ExitCommand asks the server to drop this client session
func ExitCommand() string {
	return commandPrefix + "var_exit()"
}

// AssignFloat formats an assignment of a numeric variable with two decimals
func AssignFloat(varPath, name string, value float64) string {
	return fmt.Sprintf("%s.%s = %.2f ;", varPath, name, value)
}

// AssignBool formats an assignment of a boolean variable
func AssignBool(varPath, name string, value bool) string {
	v := "False"
	if value {
		v = "True"
	}
	return fmt.Sprintf("%s.%s = %s ;", varPath, name, v)
}
