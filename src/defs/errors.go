package defs

/// Err_t is the kernel-wide error return type. Zero is success; all other
/// values are negative, following the convention set by every device,
/// filesystem, and syscall boundary in this tree.
type Err_t int

const (
	EOOM      Err_t = -1 /// out of resource: no free frame/inode/heap block/task slot
	EINVAL    Err_t = -2 /// invalid argument: misaligned address, bad descriptor, out-of-range frame
	ECORRUPT  Err_t = -3 /// on-disk or in-memory structure failed a consistency check
	ETIMEOUT  Err_t = -4 /// a bounded spin wait expired
	ENOENT    Err_t = -5 /// named entry does not exist
	EEXIST    Err_t = -6 /// named entry already exists
	ENOTEMPTY Err_t = -7 /// directory is not empty
	EFAULT    Err_t = -8 /// address does not resolve to mapped, accessible memory
)

/// Tid_t identifies a schedulable task.
type Tid_t int
