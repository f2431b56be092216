package entity

// Emitente snapshot do emitente embutido na nota no momento da emissão.
type Emitente struct {
	CNPJ              string // 14 dígitos
	RazaoSocial       string
	NomeFantasia      string
	InscricaoEstadual string
	CRT               string // código de regime tributário ("1" Simples, "3" normal)
	UF                string
	Municipio         string
	CodigoMunicipio   string // código IBGE 7 dígitos
	Logradouro        string
	Numero            string
	Bairro            string
	CEP               string
}

// Destinatario snapshot do destinatário embutido na nota.
type Destinatario struct {
	CNPJ              string // 14 dígitos (vazio quando pessoa física)
	CPF               string // 11 dígitos (vazio quando pessoa jurídica)
	RazaoSocial       string
	InscricaoEstadual string
	IndIEDest         string // 1=contribuinte, 2=isento, 9=não contribuinte
	UF                string
	Municipio         string
	CodigoMunicipio   string
	Logradouro        string
	Numero            string
	Bairro            string
	CEP               string
}

// Documento devolve o documento fiscal do destinatário (CNPJ ou CPF).
func (d Destinatario) Documento() string {
	if d.CNPJ != "" {
		return d.CNPJ
	}
	return d.CPF
}
