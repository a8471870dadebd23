package probe

import "github.com/nao1215/vmdetect/internal/model"

// Denylist tables for the built-in probes.
//
// Design decision: signatures live in package-level read-only tables
// instead of inside each probe. This keeps the probes pure matching logic,
// lets tests assert against the same tables the probes use, and gives
// signature updates a single file to touch. None of these tables may be
// mutated after init.

// hardwareModelDenylist holds lowercase substrings that identify a
// virtualized machine when they appear in the hardware vendor or product
// identity reported by the firmware.
var hardwareModelDenylist = []string{
	"virtualbox",
	"vmware",
	"virtual machine",
	"hyper-v",
	"qemu",
	"kvm",
	"xen",
	"parallels",
	"bochs",
	"bhyve",
}

// macVendorOUIs maps IEEE OUI prefixes to the virtualization products that
// allocate NICs from them. Guest NICs keep these prefixes unless the
// operator randomizes the MAC address.
var macVendorOUIs = map[model.OUI]string{
	// VMware
	model.MustNewOUI("00:05:69"): "VMware",
	model.MustNewOUI("00:0C:29"): "VMware",
	model.MustNewOUI("00:1C:14"): "VMware",
	model.MustNewOUI("00:50:56"): "VMware",

	// Microsoft Virtual PC / Hyper-V
	model.MustNewOUI("00:03:FF"): "Microsoft Virtual PC",
	model.MustNewOUI("00:05:00"): "Microsoft Virtual PC",
	model.MustNewOUI("00:15:5D"): "Microsoft Hyper-V",

	// Oracle VirtualBox
	model.MustNewOUI("08:00:27"): "Oracle VirtualBox",
	model.MustNewOUI("0A:00:27"): "Oracle VirtualBox host-only adapter",

	// Others
	model.MustNewOUI("00:1C:42"): "Parallels",
	model.MustNewOUI("00:16:3E"): "Xen",
	model.MustNewOUI("52:54:00"): "QEMU/KVM",
}

// driverDenylists holds per-platform driver names installed by guest
// additions and paravirtual device support. Names are lowercase; Windows
// entries are driver file names under System32\drivers, Linux entries are
// kernel module names as listed in /proc/modules.
//
// Entries are limited to drivers that ship with guest tooling or
// paravirtual hardware. Generic names that also exist on physical hosts
// would turn this probe into a false-positive generator.
var driverDenylists = map[model.Platform][]string{
	model.PlatformWindows: {
		// VirtualBox guest additions
		"vboxguest.sys",
		"vboxmouse.sys",
		"vboxsf.sys",
		"vboxwddm.sys",

		// VMware tools
		"vmci.sys",
		"vmhgfs.sys",
		"vmmouse.sys",
		"vmusbmouse.sys",
		"vm3dmp.sys",
		"vmmemctl.sys",
	},
	model.PlatformLinux: {
		// VirtualBox guest additions
		"vboxguest",
		"vboxsf",
		"vboxvideo",

		// VMware paravirtual devices
		"vmw_balloon",
		"vmw_vmci",
		"vmw_pvscsi",
		"vmwgfx",

		// Hyper-V integration services
		"hv_vmbus",
		"hv_storvsc",
		"hv_netvsc",

		// KVM/QEMU virtio devices
		"virtio_pci",
		"virtio_net",
		"virtio_balloon",

		// Xen frontends
		"xen_blkfront",
		"xen_netfront",
	},
}

// processDenylist maps normalized process names (lowercase, without the
// .exe suffix) to a short description of the tool. It covers guest-tooling
// daemons that only run inside virtual machines and analysis tools whose
// presence marks an instrumented host.
var processDenylist = map[string]string{
	// Guest tooling daemons
	"vmtoolsd":    "VMware Tools daemon",
	"vboxservice": "VirtualBox guest service",
	"vboxtray":    "VirtualBox guest tray",
	"qemu-ga":     "QEMU guest agent",
	"prl_tools":   "Parallels Tools daemon",
	"xenservice":  "Xen guest service",

	// Traffic inspection
	"wireshark":    "Wireshark packet capture",
	"tcpdump":      "tcpdump packet capture",
	"fiddler":      "Fiddler HTTP proxy",
	"mitmproxy":    "mitmproxy HTTP proxy",
	"httpdebugger": "HTTP Debugger",

	// Sandboxes
	"sandboxie": "Sandboxie",
	"sbiesvc":   "Sandboxie service",

	// Process inspection and debugging
	"processhacker": "Process Hacker",
	"procmon":       "Process Monitor",
	"procmon64":     "Process Monitor",
	"procexp":       "Process Explorer",
	"procexp64":     "Process Explorer",
	"ollydbg":       "OllyDbg debugger",
	"x32dbg":        "x32dbg debugger",
	"x64dbg":        "x64dbg debugger",
	"windbg":        "WinDbg debugger",
	"ida":           "IDA disassembler",
	"ida64":         "IDA disassembler",
}

// artifactPaths holds per-platform filesystem paths that exist only when
// guest tooling is installed. Paths are probed with os.Stat; a path that
// exists is treated as conclusive.
var artifactPaths = map[model.Platform][]string{
	model.PlatformWindows: {
		`C:\Program Files\VMware\VMware Tools`,
		`C:\Program Files\Oracle\VirtualBox Guest Additions`,
		`C:\Program Files\Microsoft Virtual PC`,
		`C:\Program Files\Hyper-V`,
	},
	model.PlatformLinux: {
		"/usr/bin/VBoxClient",
		"/usr/bin/VBoxControl",
		"/usr/bin/vmware-toolbox-cmd",
		"/usr/bin/vmware-user",
		"/usr/bin/qemu-ga",
		"/dev/vboxguest",
		"/dev/vboxuser",
		"/dev/vmci",
	},
}

// sandboxUninstallKey is the registry key that Windows Sandbox registers
// under HKEY_LOCAL_MACHINE when the feature is enabled.
const sandboxUninstallKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Microsoft Windows Sandbox`

// sandboxPackageGlobs matches the Windows Sandbox application packages
// under the WindowsApps directory. The package directory carries a version
// suffix, so matching needs a glob rather than a fixed path.
var sandboxPackageGlobs = []string{
	`Microsoft.WindowsSandbox_*`,
	`Microsoft.Sandbox_*`,
}

// driverDenylistFor returns the driver denylist for the given platform.
// Platforms without an entry get an empty list.
func driverDenylistFor(platform model.Platform) []string {
	return driverDenylists[platform]
}

// artifactPathsFor returns the guest-tooling paths for the given platform.
// Platforms without an entry get an empty list.
func artifactPathsFor(platform model.Platform) []string {
	return artifactPaths[platform]
}
