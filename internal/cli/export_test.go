package cli

// Export internal functions for testing.

// RunCheckLLM exports runCheckLLM for testing.
var RunCheckLLM = runCheckLLM

// RunConfigPath exports runConfigPath for testing.
var RunConfigPath = runConfigPath

// RunConfigShow exports runConfigShow for testing.
var RunConfigShow = runConfigShow

// RunConfigInit exports runConfigInit for testing.
var RunConfigInit = runConfigInit

// CheckCredentials exports checkCredentials for testing.
var CheckCredentials = checkCredentials

// MaskKey exports maskKey for testing.
var MaskKey = maskKey

// SamePath exports samePath for testing.
var SamePath = samePath
