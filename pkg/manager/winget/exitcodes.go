package winget

import (
	"fmt"
	"strings"

	"wingetbridge/pkg/manager"
)

// Exit codes with a dedicated outcome.
const (
	CodeCtrlSignalReceived     = 0x8A150005
	CodeInstallerHashMismatch  = 0x8A150011
	CodeMultipleAppsFound      = 0x8A150016
	CodeCommandRequiresAdmin   = 0x8A150019
	CodeUpdateNotApplicable    = 0x8A15002B
	CodeUpgradeVersionNotNewer = 0x8A15004F
	CodePackageAlreadyInstall  = 0x8A150061
	CodeRebootRequiredToFinish = 0x8A150109
	CodeRebootInitiated        = 0x8A15010B
	CodeInstallCancelledByUser = 0x8A15010C
	CodeInstallAlreadyPresent  = 0x8A15010D
	CodeFileHashMismatch       = 0x8A150204
)

// Symbols published by winget for its HRESULT exit codes.
var exitSymbols = map[uint32]string{
	0x8A150001: "APPINSTALLER_CLI_ERROR_INTERNAL_ERROR",
	0x8A150002: "APPINSTALLER_CLI_ERROR_INVALID_CL_ARGUMENTS",
	0x8A150003: "APPINSTALLER_CLI_ERROR_COMMAND_FAILED",
	0x8A150004: "APPINSTALLER_CLI_ERROR_MANIFEST_FAILED",
	0x8A150005: "APPINSTALLER_CLI_ERROR_CTRL_SIGNAL_RECEIVED",
	0x8A150006: "APPINSTALLER_CLI_ERROR_SHELLEXEC_INSTALL_FAILED",
	0x8A150007: "APPINSTALLER_CLI_ERROR_UNSUPPORTED_MANIFESTVERSION",
	0x8A150008: "APPINSTALLER_CLI_ERROR_DOWNLOAD_FAILED",
	0x8A150009: "APPINSTALLER_CLI_ERROR_CANNOT_WRITE_TO_UPLEVEL_INDEX",
	0x8A15000A: "APPINSTALLER_CLI_ERROR_INDEX_INTEGRITY_COMPROMISED",
	0x8A15000B: "APPINSTALLER_CLI_ERROR_SOURCES_INVALID",
	0x8A15000C: "APPINSTALLER_CLI_ERROR_SOURCE_NAME_ALREADY_EXISTS",
	0x8A15000D: "APPINSTALLER_CLI_ERROR_INVALID_SOURCE_TYPE",
	0x8A15000E: "APPINSTALLER_CLI_ERROR_PACKAGE_IS_BUNDLE",
	0x8A15000F: "APPINSTALLER_CLI_ERROR_SOURCE_DATA_MISSING",
	0x8A150010: "APPINSTALLER_CLI_ERROR_NO_APPLICABLE_INSTALLER",
	0x8A150011: "APPINSTALLER_CLI_ERROR_INSTALLER_HASH_MISMATCH",
	0x8A150012: "APPINSTALLER_CLI_ERROR_SOURCE_NAME_DOES_NOT_EXIST",
	0x8A150013: "APPINSTALLER_CLI_ERROR_SOURCE_ARG_ALREADY_EXISTS",
	0x8A150014: "APPINSTALLER_CLI_ERROR_NO_APPLICATIONS_FOUND",
	0x8A150015: "APPINSTALLER_CLI_ERROR_NO_SOURCES_DEFINED",
	0x8A150016: "APPINSTALLER_CLI_ERROR_MULTIPLE_APPLICATIONS_FOUND",
	0x8A150017: "APPINSTALLER_CLI_ERROR_NO_MANIFEST_FOUND",
	0x8A150018: "APPINSTALLER_CLI_ERROR_EXTENSION_PUBLIC_FAILED",
	0x8A150019: "APPINSTALLER_CLI_ERROR_COMMAND_REQUIRES_ADMIN",
	0x8A15001A: "APPINSTALLER_CLI_ERROR_SOURCE_NOT_SECURE",
	0x8A15001B: "APPINSTALLER_CLI_ERROR_MSSTORE_BLOCKED_BY_POLICY",
	0x8A15001C: "APPINSTALLER_CLI_ERROR_MSSTORE_APP_BLOCKED_BY_POLICY",
	0x8A15001D: "APPINSTALLER_CLI_ERROR_EXPERIMENTAL_FEATURE_DISABLED",
	0x8A15001E: "APPINSTALLER_CLI_ERROR_MSSTORE_INSTALL_FAILED",
	0x8A15001F: "APPINSTALLER_CLI_ERROR_COMPLETE_INPUT_BAD",
	0x8A150020: "APPINSTALLER_CLI_ERROR_YAML_INIT_FAILED",
	0x8A150021: "APPINSTALLER_CLI_ERROR_YAML_INVALID_MAPPING_KEY",
	0x8A150022: "APPINSTALLER_CLI_ERROR_YAML_DUPLICATE_MAPPING_KEY",
	0x8A150023: "APPINSTALLER_CLI_ERROR_YAML_INVALID_OPERATION",
	0x8A150024: "APPINSTALLER_CLI_ERROR_YAML_DOC_BUILD_FAILED",
	0x8A150025: "APPINSTALLER_CLI_ERROR_YAML_INVALID_EMITTER_STATE",
	0x8A150026: "APPINSTALLER_CLI_ERROR_YAML_INVALID_DATA",
	0x8A150027: "APPINSTALLER_CLI_ERROR_LIBYAML_ERROR",
	0x8A150028: "APPINSTALLER_CLI_ERROR_MANIFEST_VALIDATION_WARNING",
	0x8A150029: "APPINSTALLER_CLI_ERROR_MANIFEST_VALIDATION_FAILURE",
	0x8A15002A: "APPINSTALLER_CLI_ERROR_INVALID_MANIFEST",
	0x8A15002B: "APPINSTALLER_CLI_ERROR_UPDATE_NOT_APPLICABLE",
	0x8A15002C: "APPINSTALLER_CLI_ERROR_UPDATE_ALL_HAS_FAILURE",
	0x8A15002D: "APPINSTALLER_CLI_ERROR_INSTALLER_SECURITY_CHECK_FAILED",
	0x8A15002E: "APPINSTALLER_CLI_ERROR_DOWNLOAD_SIZE_MISMATCH",
	0x8A15002F: "APPINSTALLER_CLI_ERROR_NO_UNINSTALL_INFO_FOUND",
	0x8A150030: "APPINSTALLER_CLI_ERROR_EXEC_UNINSTALL_COMMAND_FAILED",
	0x8A150031: "APPINSTALLER_CLI_ERROR_ICU_BREAK_ITERATOR_ERROR",
	0x8A150032: "APPINSTALLER_CLI_ERROR_ICU_CASEMAP_ERROR",
	0x8A150033: "APPINSTALLER_CLI_ERROR_ICU_REGEX_ERROR",
	0x8A150034: "APPINSTALLER_CLI_ERROR_IMPORT_INSTALL_FAILED",
	0x8A150035: "APPINSTALLER_CLI_ERROR_NOT_ALL_PACKAGES_FOUND",
	0x8A150036: "APPINSTALLER_CLI_ERROR_JSON_INVALID_FILE",
	0x8A150037: "APPINSTALLER_CLI_ERROR_SOURCE_NOT_REMOTE",
	0x8A150038: "APPINSTALLER_CLI_ERROR_UNSUPPORTED_RESTSOURCE",
	0x8A150039: "APPINSTALLER_CLI_ERROR_RESTSOURCE_INVALID_DATA",
	0x8A15003A: "APPINSTALLER_CLI_ERROR_BLOCKED_BY_POLICY",
	0x8A15003B: "APPINSTALLER_CLI_ERROR_RESTSOURCE_INTERNAL_ERROR",
	0x8A15003C: "APPINSTALLER_CLI_ERROR_RESTSOURCE_INVALID_URL",
	0x8A15003D: "APPINSTALLER_CLI_ERROR_RESTSOURCE_UNSUPPORTED_MIME_TYPE",
	0x8A15003E: "APPINSTALLER_CLI_ERROR_RESTSOURCE_INVALID_VERSION",
	0x8A15003F: "APPINSTALLER_CLI_ERROR_SOURCE_DATA_INTEGRITY_FAILURE",
	0x8A150040: "APPINSTALLER_CLI_ERROR_STREAM_READ_FAILURE",
	0x8A150041: "APPINSTALLER_CLI_ERROR_PACKAGE_AGREEMENTS_NOT_ACCEPTED",
	0x8A150042: "APPINSTALLER_CLI_ERROR_PROMPT_INPUT_ERROR",
	0x8A150043: "APPINSTALLER_CLI_ERROR_UNSUPPORTED_SOURCE_REQUEST",
	0x8A150044: "APPINSTALLER_CLI_ERROR_RESTSOURCE_ENDPOINT_NOT_FOUND",
	0x8A150045: "APPINSTALLER_CLI_ERROR_SOURCE_OPEN_FAILED",
	0x8A150046: "APPINSTALLER_CLI_ERROR_SOURCE_AGREEMENTS_NOT_ACCEPTED",
	0x8A150047: "APPINSTALLER_CLI_ERROR_CUSTOMHEADER_EXCEEDS_MAXLENGTH",
	0x8A150048: "APPINSTALLER_CLI_ERROR_MISSING_RESOURCE_FILE",
	0x8A150049: "APPINSTALLER_CLI_ERROR_MSI_INSTALL_FAILED",
	0x8A15004A: "APPINSTALLER_CLI_ERROR_INVALID_MSIEXEC_ARGUMENT",
	0x8A15004B: "APPINSTALLER_CLI_ERROR_FAILED_TO_OPEN_ALL_SOURCES",
	0x8A15004C: "APPINSTALLER_CLI_ERROR_DEPENDENCIES_VALIDATION_FAILED",
	0x8A15004D: "APPINSTALLER_CLI_ERROR_MISSING_PACKAGE",
	0x8A15004E: "APPINSTALLER_CLI_ERROR_INVALID_TABLE_COLUMN",
	0x8A15004F: "APPINSTALLER_CLI_ERROR_UPGRADE_VERSION_NOT_NEWER",
	0x8A150050: "APPINSTALLER_CLI_ERROR_UPGRADE_VERSION_UNKNOWN",
	0x8A150051: "APPINSTALLER_CLI_ERROR_ICU_CONVERSION_ERROR",
	0x8A150052: "APPINSTALLER_CLI_ERROR_PORTABLE_INSTALL_FAILED",
	0x8A150053: "APPINSTALLER_CLI_ERROR_PORTABLE_REPARSE_POINT_NOT_SUPPORTED",
	0x8A150054: "APPINSTALLER_CLI_ERROR_PORTABLE_PACKAGE_ALREADY_EXISTS",
	0x8A150055: "APPINSTALLER_CLI_ERROR_PORTABLE_SYMLINK_PATH_IS_DIRECTORY",
	0x8A150056: "APPINSTALLER_CLI_ERROR_INSTALLER_PROHIBITS_ELEVATION",
	0x8A150057: "APPINSTALLER_CLI_ERROR_PORTABLE_UNINSTALL_FAILED",
	0x8A150058: "APPINSTALLER_CLI_ERROR_ARP_VERSION_VALIDATION_FAILED",
	0x8A150059: "APPINSTALLER_CLI_ERROR_UNSUPPORTED_ARGUMENT",
	0x8A15005A: "APPINSTALLER_CLI_ERROR_BIND_WITH_EMBEDDED_NULL",
	0x8A15005B: "APPINSTALLER_CLI_ERROR_NESTEDINSTALLER_NOT_FOUND",
	0x8A15005C: "APPINSTALLER_CLI_ERROR_EXTRACT_ARCHIVE_FAILED",
	0x8A15005D: "APPINSTALLER_CLI_ERROR_NESTEDINSTALLER_INVALID_PATH",
	0x8A15005E: "APPINSTALLER_CLI_ERROR_PINNED_CERTIFICATE_MISMATCH",
	0x8A15005F: "APPINSTALLER_CLI_ERROR_INSTALL_LOCATION_REQUIRED",
	0x8A150060: "APPINSTALLER_CLI_ERROR_ARCHIVE_SCAN_FAILED",
	0x8A150061: "APPINSTALLER_CLI_ERROR_PACKAGE_ALREADY_INSTALLED",
	0x8A150062: "APPINSTALLER_CLI_ERROR_PIN_ALREADY_EXISTS",
	0x8A150063: "APPINSTALLER_CLI_ERROR_PIN_DOES_NOT_EXIST",
	0x8A150064: "APPINSTALLER_CLI_ERROR_CANNOT_OPEN_PINNING_INDEX",
	0x8A150065: "APPINSTALLER_CLI_ERROR_MULTIPLE_INSTALL_FAILED",
	0x8A150066: "APPINSTALLER_CLI_ERROR_MULTIPLE_UNINSTALL_FAILED",
	0x8A150067: "APPINSTALLER_CLI_ERROR_NOT_ALL_QUERIES_FOUND_SINGLE",
	0x8A150068: "APPINSTALLER_CLI_ERROR_PACKAGE_IS_PINNED",
	0x8A150069: "APPINSTALLER_CLI_ERROR_PACKAGE_IS_STUB",
	0x8A15006A: "APPINSTALLER_CLI_ERROR_APPTERMINATION_RECEIVED",
	0x8A15006B: "APPINSTALLER_CLI_ERROR_DOWNLOAD_DEPENDENCIES",
	0x8A15006C: "APPINSTALLER_CLI_ERROR_DOWNLOAD_COMMAND_PROHIBITED",
	0x8A15006D: "APPINSTALLER_CLI_ERROR_SERVICE_UNAVAILABLE",
	0x8A15006E: "APPINSTALLER_CLI_ERROR_RESUME_ID_NOT_FOUND",
	0x8A15006F: "APPINSTALLER_CLI_ERROR_CLIENT_VERSION_MISMATCH",
	0x8A150070: "APPINSTALLER_CLI_ERROR_INVALID_RESUME_STATE",
	0x8A150071: "APPINSTALLER_CLI_ERROR_CANNOT_OPEN_CHECKPOINT_INDEX",
	0x8A150072: "APPINSTALLER_CLI_ERROR_RESUME_LIMIT_EXCEEDED",

	// Install errors
	0x8A150101: "APPINSTALLER_CLI_ERROR_INSTALL_PACKAGE_IN_USE",
	0x8A150102: "APPINSTALLER_CLI_ERROR_INSTALL_INSTALL_IN_PROGRESS",
	0x8A150103: "APPINSTALLER_CLI_ERROR_INSTALL_FILE_IN_USE",
	0x8A150104: "APPINSTALLER_CLI_ERROR_INSTALL_MISSING_DEPENDENCY",
	0x8A150105: "APPINSTALLER_CLI_ERROR_INSTALL_DISK_FULL",
	0x8A150106: "APPINSTALLER_CLI_ERROR_INSTALL_INSUFFICIENT_MEMORY",
	0x8A150107: "APPINSTALLER_CLI_ERROR_INSTALL_NO_NETWORK",
	0x8A150108: "APPINSTALLER_CLI_ERROR_INSTALL_CONTACT_SUPPORT",
	0x8A150109: "APPINSTALLER_CLI_ERROR_INSTALL_REBOOT_REQUIRED_TO_FINISH",
	0x8A15010A: "APPINSTALLER_CLI_ERROR_INSTALL_REBOOT_REQUIRED_FOR_INSTALL",
	0x8A15010B: "APPINSTALLER_CLI_ERROR_INSTALL_REBOOT_INITIATED",
	0x8A15010C: "APPINSTALLER_CLI_ERROR_INSTALL_CANCELLED_BY_USER",
	0x8A15010D: "APPINSTALLER_CLI_ERROR_INSTALL_ALREADY_INSTALLED",
	0x8A15010E: "APPINSTALLER_CLI_ERROR_INSTALL_DOWNGRADE",
	0x8A15010F: "APPINSTALLER_CLI_ERROR_INSTALL_BLOCKED_BY_POLICY",
	0x8A150110: "APPINSTALLER_CLI_ERROR_INSTALL_DEPENDENCIES",
	0x8A150111: "APPINSTALLER_CLI_ERROR_INSTALL_PACKAGE_IN_USE_BY_APPLICATION",
	0x8A150112: "APPINSTALLER_CLI_ERROR_INSTALL_INVALID_PARAMETER",
	0x8A150113: "APPINSTALLER_CLI_ERROR_INSTALL_SYSTEM_NOT_SUPPORTED",
	0x8A150114: "APPINSTALLER_CLI_ERROR_INSTALL_UPGRADE_NOT_SUPPORTED",

	// Installed status checks. Partial success values clear the top bit.
	0x8A150201: "WINGET_INSTALLED_STATUS_ARP_ENTRY_NOT_FOUND",
	0x0A150202: "WINGET_INSTALLED_STATUS_INSTALL_LOCATION_NOT_APPLICABLE",
	0x8A150203: "WINGET_INSTALLED_STATUS_INSTALL_LOCATION_NOT_FOUND",
	0x8A150204: "WINGET_INSTALLED_STATUS_FILE_HASH_MISMATCH",
	0x8A150205: "WINGET_INSTALLED_STATUS_FILE_NOT_FOUND",
	0x0A150206: "WINGET_INSTALLED_STATUS_FILE_FOUND_WITHOUT_HASH_CHECK",
	0x8A150207: "WINGET_INSTALLED_STATUS_FILE_ACCESS_ERROR",

	// Configuration errors
	0x8A15C001: "WINGET_CONFIG_ERROR_INVALID_CONFIGURATION_FILE",
	0x8A15C002: "WINGET_CONFIG_ERROR_INVALID_YAML",
	0x8A15C003: "WINGET_CONFIG_ERROR_INVALID_FIELD_TYPE",
	0x8A15C004: "WINGET_CONFIG_ERROR_UNKNOWN_CONFIGURATION_FILE_VERSION",
	0x8A15C005: "WINGET_CONFIG_ERROR_SET_APPLY_FAILED",
	0x8A15C006: "WINGET_CONFIG_ERROR_DUPLICATE_IDENTIFIER",
	0x8A15C007: "WINGET_CONFIG_ERROR_MISSING_DEPENDENCY",
	0x8A15C008: "WINGET_CONFIG_ERROR_DEPENDENCY_UNSATISFIED",
	0x8A15C009: "WINGET_CONFIG_ERROR_ASSERTION_FAILED",
	0x8A15C00A: "WINGET_CONFIG_ERROR_MANUALLY_SKIPPED",
	0x8A15C00B: "WINGET_CONFIG_ERROR_WARNING_NOT_ACCEPTED",
	0x8A15C00C: "WINGET_CONFIG_ERROR_SET_DEPENDENCY_CYCLE",
	0x8A15C00D: "WINGET_CONFIG_ERROR_INVALID_FIELD_VALUE",
	0x8A15C00E: "WINGET_CONFIG_ERROR_MISSING_FIELD",
	0x8A15C00F: "WINGET_CONFIG_ERROR_TEST_FAILED",
	0x8A15C010: "WINGET_CONFIG_ERROR_TEST_NOT_RUN",

	// Configuration processor errors
	0x8A15C101: "WINGET_CONFIG_ERROR_UNIT_NOT_INSTALLED",
	0x8A15C102: "WINGET_CONFIG_ERROR_UNIT_NOT_FOUND_REPOSITORY",
	0x8A15C103: "WINGET_CONFIG_ERROR_UNIT_MULTIPLE_MATCHES",
	0x8A15C104: "WINGET_CONFIG_ERROR_UNIT_INVOKE_GET",
	0x8A15C105: "WINGET_CONFIG_ERROR_UNIT_INVOKE_TEST",
	0x8A15C106: "WINGET_CONFIG_ERROR_UNIT_INVOKE_SET",
	0x8A15C107: "WINGET_CONFIG_ERROR_UNIT_MODULE_CONFLICT",
	0x8A15C108: "WINGET_CONFIG_ERROR_UNIT_IMPORT_MODULE",
	0x8A15C109: "WINGET_CONFIG_ERROR_UNIT_INVOKE_INVALID_RESULT",
	0x8A15C110: "WINGET_CONFIG_ERROR_UNIT_SETTING_CONFIG_ROOT",
	0x8A15C111: "WINGET_CONFIG_ERROR_UNIT_IMPORT_MODULE_ADMIN",
	0x8A15C112: "WINGET_CONFIG_ERROR_NOT_SUPPORTED_BY_PROCESSOR",
}

// codeOutcomes maps the exit codes that carry an actionable meaning.
var codeOutcomes = map[uint32]manager.Outcome{
	0:                          manager.OutcomeSuccess,
	CodeInstallerHashMismatch:  manager.OutcomeHashMismatch,
	CodeFileHashMismatch:       manager.OutcomeHashMismatch,
	CodeRebootRequiredToFinish: manager.OutcomeNeedsRestart,
	CodeRebootInitiated:        manager.OutcomeNeedsRestart,
	CodeCommandRequiresAdmin:   manager.OutcomeNeedsElevation,
	CodeUpdateNotApplicable:    manager.OutcomeNoApplicableUpdate,
	CodeUpgradeVersionNotNewer: manager.OutcomeNoApplicableUpdate,
	CodePackageAlreadyInstall:  manager.OutcomeAlreadyInstalled,
	CodeInstallAlreadyPresent:  manager.OutcomeAlreadyInstalled,
	CodeMultipleAppsFound:      manager.OutcomeNotIdentified,
	CodeInstallCancelledByUser: manager.OutcomeCancelled,
	CodeCtrlSignalReceived:     manager.OutcomeCancelled,
}

var (
	noUpdatePhrases = []string{
		"No applicable upgrade found",
		"No newer package versions are available from the configured sources",
	}
	uninstallElevationPhrases = []string{"1603", "0x80070005", "Access is denied"}
	alreadyInstalledPhrase    = "Found an existing package already installed"
)

// Classify renders an exit code as lower-case hex of its 32-bit value,
// suffixed with ":SYMBOL" when winget documents it.
func Classify(code int) string {
	u := uint32(code)
	text := fmt.Sprintf("%#x", u)
	if sym, ok := exitSymbols[u]; ok {
		text += ":" + sym
	}
	return text
}

// Symbol returns the documented name of an exit code.
func Symbol(code int) (string, bool) {
	sym, ok := exitSymbols[uint32(code)]
	return sym, ok
}

// Interpret derives the outcome of an operation. Output phrases win over the
// exit code because winget returns success-looking codes on some no-ops.
func Interpret(intent manager.Intent, code int, output string) manager.Outcome {
	if containsAny(output, noUpdatePhrases) {
		return manager.OutcomeNoApplicableUpdate
	}
	if intent == manager.IntentUninstall && containsAny(output, uninstallElevationPhrases) {
		return manager.OutcomeNeedsElevation
	}
	// winget goes on to upgrade an existing install; only a failed run is a
	// plain "already installed".
	if code != 0 && intent == manager.IntentInstall && strings.Contains(output, alreadyInstalledPhrase) {
		return manager.OutcomeAlreadyInstalled
	}

	if o, ok := codeOutcomes[uint32(code)]; ok {
		return o
	}
	return manager.OutcomeFailure
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
