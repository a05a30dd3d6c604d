package domain

// ProcessSpec is everything a supervisor needs to start one node.
type ProcessSpec struct {
	// Name is the fully qualified node name.
	Name           string            `json:"name"`
	Package        string            `json:"package"`
	Executable     string            `json:"executable"`
	ExecutablePath string            `json:"executable_path"`
	Args           []string          `json:"args"`
	Env            map[string]string `json:"env,omitempty"`
	WorkingDir     string            `json:"working_dir"`
	Namespace      string            `json:"namespace"`
	NodeName       string            `json:"node_name"`
}

// LaunchPlan is the ordered process list emitted for one topology.
type LaunchPlan struct {
	// ID is a content fingerprint of Processes.
	ID        string        `json:"id"`
	Root      string        `json:"root"`
	Processes []ProcessSpec `json:"processes"`
}
