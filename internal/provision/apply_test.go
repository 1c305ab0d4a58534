package provision

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/require"

	awsinternal "github.com/acoder2b/iamcdkapp/internal/aws"
	"github.com/acoder2b/iamcdkapp/internal/iamconfig"
)

type mockIAMClient struct {
	FnGetRole                func(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	FnListAttachedPolicies   func(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	FnListRolePolicies       func(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error)
	FnGetRolePolicy          func(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error)
	FnGetPolicy              func(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
	FnGetPolicyVersion       func(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	FnListPolicyVersions     func(ctx context.Context, params *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error)
	FnCreateRole             func(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	FnUpdateRole             func(ctx context.Context, params *iam.UpdateRoleInput, optFns ...func(*iam.Options)) (*iam.UpdateRoleOutput, error)
	FnUpdateAssumeRolePolicy func(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error)
	FnAttachRolePolicy       func(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	FnPutRolePolicy          func(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
	FnCreatePolicy           func(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
	FnCreatePolicyVersion    func(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error)
}

func (m *mockIAMClient) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	return &iam.ListRolesOutput{}, nil
}

func (m *mockIAMClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	if m.FnGetRole != nil {
		return m.FnGetRole(ctx, params, optFns...)
	}
	return nil, &iamtypes.NoSuchEntityException{}
}

func (m *mockIAMClient) ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	if m.FnListAttachedPolicies != nil {
		return m.FnListAttachedPolicies(ctx, params, optFns...)
	}
	return &iam.ListAttachedRolePoliciesOutput{}, nil
}

func (m *mockIAMClient) ListRolePolicies(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error) {
	if m.FnListRolePolicies != nil {
		return m.FnListRolePolicies(ctx, params, optFns...)
	}
	return &iam.ListRolePoliciesOutput{}, nil
}

func (m *mockIAMClient) GetRolePolicy(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error) {
	if m.FnGetRolePolicy != nil {
		return m.FnGetRolePolicy(ctx, params, optFns...)
	}
	return &iam.GetRolePolicyOutput{}, nil
}

func (m *mockIAMClient) ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	return &iam.ListPoliciesOutput{}, nil
}

func (m *mockIAMClient) GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	if m.FnGetPolicy != nil {
		return m.FnGetPolicy(ctx, params, optFns...)
	}
	return nil, &iamtypes.NoSuchEntityException{}
}

func (m *mockIAMClient) GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
	if m.FnGetPolicyVersion != nil {
		return m.FnGetPolicyVersion(ctx, params, optFns...)
	}
	return &iam.GetPolicyVersionOutput{PolicyVersion: &iamtypes.PolicyVersion{}}, nil
}

func (m *mockIAMClient) ListPolicyTags(ctx context.Context, params *iam.ListPolicyTagsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyTagsOutput, error) {
	return &iam.ListPolicyTagsOutput{}, nil
}

func (m *mockIAMClient) ListPolicyVersions(ctx context.Context, params *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
	if m.FnListPolicyVersions != nil {
		return m.FnListPolicyVersions(ctx, params, optFns...)
	}
	return &iam.ListPolicyVersionsOutput{}, nil
}

func (m *mockIAMClient) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	if m.FnCreateRole != nil {
		return m.FnCreateRole(ctx, params, optFns...)
	}
	return &iam.CreateRoleOutput{Role: &iamtypes.Role{RoleName: params.RoleName}}, nil
}

func (m *mockIAMClient) UpdateRole(ctx context.Context, params *iam.UpdateRoleInput, optFns ...func(*iam.Options)) (*iam.UpdateRoleOutput, error) {
	if m.FnUpdateRole != nil {
		return m.FnUpdateRole(ctx, params, optFns...)
	}
	return &iam.UpdateRoleOutput{}, nil
}

func (m *mockIAMClient) UpdateAssumeRolePolicy(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error) {
	if m.FnUpdateAssumeRolePolicy != nil {
		return m.FnUpdateAssumeRolePolicy(ctx, params, optFns...)
	}
	return &iam.UpdateAssumeRolePolicyOutput{}, nil
}

func (m *mockIAMClient) TagRole(ctx context.Context, params *iam.TagRoleInput, optFns ...func(*iam.Options)) (*iam.TagRoleOutput, error) {
	return &iam.TagRoleOutput{}, nil
}

func (m *mockIAMClient) PutRolePermissionsBoundary(ctx context.Context, params *iam.PutRolePermissionsBoundaryInput, optFns ...func(*iam.Options)) (*iam.PutRolePermissionsBoundaryOutput, error) {
	return &iam.PutRolePermissionsBoundaryOutput{}, nil
}

func (m *mockIAMClient) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	if m.FnAttachRolePolicy != nil {
		return m.FnAttachRolePolicy(ctx, params, optFns...)
	}
	return &iam.AttachRolePolicyOutput{}, nil
}

func (m *mockIAMClient) PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error) {
	if m.FnPutRolePolicy != nil {
		return m.FnPutRolePolicy(ctx, params, optFns...)
	}
	return &iam.PutRolePolicyOutput{}, nil
}

func (m *mockIAMClient) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	if m.FnCreatePolicy != nil {
		return m.FnCreatePolicy(ctx, params, optFns...)
	}
	return &iam.CreatePolicyOutput{Policy: &iamtypes.Policy{
		Arn: awssdk.String("arn:aws:iam::123456789012:policy/" + awssdk.ToString(params.PolicyName)),
	}}, nil
}

func (m *mockIAMClient) CreatePolicyVersion(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
	if m.FnCreatePolicyVersion != nil {
		return m.FnCreatePolicyVersion(ctx, params, optFns...)
	}
	return &iam.CreatePolicyVersionOutput{}, nil
}

func (m *mockIAMClient) DeletePolicyVersion(ctx context.Context, params *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
	return &iam.DeletePolicyVersionOutput{}, nil
}

func (m *mockIAMClient) TagPolicy(ctx context.Context, params *iam.TagPolicyInput, optFns ...func(*iam.Options)) (*iam.TagPolicyOutput, error) {
	return &iam.TagPolicyOutput{}, nil
}

const testTrustJSON = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":["lambda.amazonaws.com"]},"Action":["sts:AssumeRole"]}]}`

func testRole() iamconfig.Role {
	return iamconfig.Role{
		RoleName:    "payments-deployer",
		Description: "deploys payments",
		TrustPolicy: &iamconfig.TrustPolicy{
			Statement: []iamconfig.TrustStatement{{
				Principal: map[string]iamconfig.StringOrList{
					"Service": {"lambda.amazonaws.com"},
				},
			}},
		},
		ManagedPolicies: []string{"arn:aws:iam::aws:policy/ReadOnlyAccess"},
	}
}

func TestApplyStackCreatesMissingRole(t *testing.T) {
	var createdRole *iam.CreateRoleInput
	var attached []string

	mock := &mockIAMClient{
		FnCreateRole: func(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
			createdRole = params
			return &iam.CreateRoleOutput{Role: &iamtypes.Role{RoleName: params.RoleName}}, nil
		},
		FnAttachRolePolicy: func(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
			attached = append(attached, awssdk.ToString(params.PolicyArn))
			return &iam.AttachRolePolicyOutput{}, nil
		},
	}

	applier := NewApplier(&awsinternal.Configuration{IAM: mock}, "123456789012", false)
	stack := &iamconfig.Stack{
		AccountID: "123456789012",
		StackName: "payments",
		Roles:     []iamconfig.Role{testRole()},
	}

	result, err := applier.ApplyStack(context.Background(), stack)
	require.NoError(t, err)

	require.Equal(t, 1, result.Count(ActionCreate))
	require.NotNil(t, createdRole)
	require.Equal(t, "payments-deployer", awssdk.ToString(createdRole.RoleName))
	require.Equal(t, int32(3600), awssdk.ToInt32(createdRole.MaxSessionDuration))
	require.True(t, DocumentsEquivalent(awssdk.ToString(createdRole.AssumeRolePolicyDocument), testTrustJSON))
	require.Equal(t, []string{"arn:aws:iam::aws:policy/ReadOnlyAccess"}, attached)
}

func TestApplyStackUnchangedRole(t *testing.T) {
	mock := &mockIAMClient{
		FnGetRole: func(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
			return &iam.GetRoleOutput{Role: &iamtypes.Role{
				RoleName:                 params.RoleName,
				Description:              awssdk.String("deploys payments"),
				MaxSessionDuration:       awssdk.Int32(3600),
				AssumeRolePolicyDocument: awssdk.String(testTrustJSON),
			}}, nil
		},
		FnListAttachedPolicies: func(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
			return &iam.ListAttachedRolePoliciesOutput{AttachedPolicies: []iamtypes.AttachedPolicy{
				{PolicyArn: awssdk.String("arn:aws:iam::aws:policy/ReadOnlyAccess")},
			}}, nil
		},
		FnCreateRole: func(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
			t.Fatal("CreateRole must not be called for an existing role")
			return nil, nil
		},
		FnUpdateAssumeRolePolicy: func(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error) {
			t.Fatal("trust policy must not be rewritten when unchanged")
			return nil, nil
		},
	}

	applier := NewApplier(&awsinternal.Configuration{IAM: mock}, "123456789012", false)
	stack := &iamconfig.Stack{
		AccountID: "123456789012",
		StackName: "payments",
		Roles:     []iamconfig.Role{testRole()},
	}

	result, err := applier.ApplyStack(context.Background(), stack)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count(ActionUnchanged))
	require.Zero(t, result.Count(ActionCreate))
	require.Zero(t, result.Count(ActionUpdate))
}

func TestApplyStackUpdatesDriftedTrustPolicy(t *testing.T) {
	var updatedTrust *iam.UpdateAssumeRolePolicyInput

	mock := &mockIAMClient{
		FnGetRole: func(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
			return &iam.GetRoleOutput{Role: &iamtypes.Role{
				RoleName:                 params.RoleName,
				Description:              awssdk.String("deploys payments"),
				MaxSessionDuration:       awssdk.Int32(3600),
				AssumeRolePolicyDocument: awssdk.String(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":["ec2.amazonaws.com"]},"Action":["sts:AssumeRole"]}]}`),
			}}, nil
		},
		FnListAttachedPolicies: func(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
			return &iam.ListAttachedRolePoliciesOutput{AttachedPolicies: []iamtypes.AttachedPolicy{
				{PolicyArn: awssdk.String("arn:aws:iam::aws:policy/ReadOnlyAccess")},
			}}, nil
		},
		FnUpdateAssumeRolePolicy: func(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error) {
			updatedTrust = params
			return &iam.UpdateAssumeRolePolicyOutput{}, nil
		},
	}

	applier := NewApplier(&awsinternal.Configuration{IAM: mock}, "123456789012", false)
	stack := &iamconfig.Stack{
		AccountID: "123456789012",
		StackName: "payments",
		Roles:     []iamconfig.Role{testRole()},
	}

	result, err := applier.ApplyStack(context.Background(), stack)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count(ActionUpdate))
	require.NotNil(t, updatedTrust)
	require.True(t, DocumentsEquivalent(awssdk.ToString(updatedTrust.PolicyDocument), testTrustJSON))
}

func TestApplyStackDryRunMakesNoChanges(t *testing.T) {
	mock := &mockIAMClient{
		FnCreateRole: func(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
			t.Fatal("CreateRole must not be called in dry-run mode")
			return nil, nil
		},
		FnCreatePolicy: func(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
			t.Fatal("CreatePolicy must not be called in dry-run mode")
			return nil, nil
		},
	}

	applier := NewApplier(&awsinternal.Configuration{IAM: mock}, "123456789012", true)
	stack := &iamconfig.Stack{
		AccountID: "123456789012",
		StackName: "payments",
		Roles:     []iamconfig.Role{testRole()},
		Policies: []iamconfig.Policy{{
			PolicyName: "payments-readonly",
			PolicyDocument: map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{map[string]any{
					"Effect": "Allow", "Action": "s3:GetObject", "Resource": "*",
				}},
			},
		}},
	}

	result, err := applier.ApplyStack(context.Background(), stack)
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.Equal(t, 2, result.Count(ActionCreate))
}

func TestApplyStackPublishesDriftedPolicyVersion(t *testing.T) {
	var newVersion *iam.CreatePolicyVersionInput

	mock := &mockIAMClient{
		FnGetPolicy: func(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
			return &iam.GetPolicyOutput{Policy: &iamtypes.Policy{
				PolicyName:       awssdk.String("payments-readonly"),
				Arn:              params.PolicyArn,
				DefaultVersionId: awssdk.String("v1"),
			}}, nil
		},
		FnGetPolicyVersion: func(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
			return &iam.GetPolicyVersionOutput{PolicyVersion: &iamtypes.PolicyVersion{
				Document: awssdk.String(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":["s3:ListBucket"],"Resource":["*"]}]}`),
			}}, nil
		},
		FnCreatePolicyVersion: func(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
			newVersion = params
			return &iam.CreatePolicyVersionOutput{}, nil
		},
	}

	applier := NewApplier(&awsinternal.Configuration{IAM: mock}, "123456789012", false)
	stack := &iamconfig.Stack{
		AccountID: "123456789012",
		StackName: "payments",
		Policies: []iamconfig.Policy{{
			PolicyName: "payments-readonly",
			PolicyDocument: map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{map[string]any{
					"Effect": "Allow", "Action": []any{"s3:GetObject"}, "Resource": []any{"*"},
				}},
			},
		}},
	}

	result, err := applier.ApplyStack(context.Background(), stack)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count(ActionUpdate))
	require.NotNil(t, newVersion)
	require.True(t, newVersion.SetAsDefault)
	require.Equal(t, "arn:aws:iam::123456789012:policy/payments-readonly", awssdk.ToString(newVersion.PolicyArn))
}

func TestPolicyARN(t *testing.T) {
	require.Equal(t, "arn:aws:iam::123456789012:policy/reader", PolicyARN("123456789012", "", "reader"))
	require.Equal(t, "arn:aws:iam::123456789012:policy/teams/payments/reader", PolicyARN("123456789012", "/teams/payments/", "reader"))
}
