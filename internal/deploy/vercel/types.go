package vercel

type deploymentFile struct {
	File string `json:"file"`
	Data string `json:"data"`
}

// projectSettings is sent with every field explicitly null so Vercel skips
// framework detection and the build/dev/install steps for static uploads.
type projectSettings struct {
	Framework       *string `json:"framework"`
	BuildCommand    *string `json:"buildCommand"`
	DevCommand      *string `json:"devCommand"`
	InstallCommand  *string `json:"installCommand"`
	OutputDirectory *string `json:"outputDirectory"`
}

type createDeploymentRequest struct {
	Name            string           `json:"name"`
	Files           []deploymentFile `json:"files"`
	ProjectSettings projectSettings  `json:"projectSettings"`
	Target          string           `json:"target,omitempty"`
}

type deploymentResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ReadyState   string `json:"readyState"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type aliasRequest struct {
	Alias string `json:"alias"`
}

type aliasResponse struct {
	UID   string `json:"uid"`
	Alias string `json:"alias"`
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
