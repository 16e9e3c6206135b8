package provisioning

import (
	"errors"
	"fmt"
)

// ErrProvisioning matches every *Error.
var ErrProvisioning = errors.New("provisioning failed")

// Stage names a provisioning step.
type Stage string

const (
	StageCreateNamespace Stage = "create_namespace"
	StageBind            Stage = "bind"
	StageSchema          Stage = "schema"
	StageSeedPermissions Stage = "seed_permissions"
	StageSeedRoles       Stage = "seed_roles"
	StageBindPermissions Stage = "bind_permissions"
	StageCreateAdmin     Stage = "create_admin"
	StageAssignAdmin     Stage = "assign_admin"
	StageCommit          Stage = "commit"
)

// Error reports the namespace and step at which provisioning stopped.
type Error struct {
	Namespace string
	Stage     Stage
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provision %s: %s: %v", e.Namespace, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrProvisioning.
func (e *Error) Is(target error) bool { return target == ErrProvisioning }
